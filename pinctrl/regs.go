package pinctrl

import "fmt"

// Community-relative register offsets fixed by the controller family.
const (
	regRevID  = 0x000
	regPadBar = 0x00c
	regGPIIS  = 0x100

	revIDShift    = 16
	revIDDebounce = 0x94
)

// Pad configuration registers, relative to a pad's first register.
const (
	padCfg0 = 0x0
	padCfg1 = 0x4
	padCfg2 = 0x8

	padCfgStride         = 8
	padCfgStrideDebounce = 16
)

// PADCFG0 fields.
const (
	padCfg0RxEvCfgShift   = 25
	padCfg0RxEvCfgMask    = 3 << padCfg0RxEvCfgShift
	padCfg0RxInv          = 1 << 23
	padCfg0GPIROUTIOXAPIC = 1 << 19
	padCfg0PModeShift     = 10
	padCfg0PModeMask      = 0xf << padCfg0PModeShift
	padCfg0GPIORxDis      = 1 << 9
	padCfg0GPIOTxDis      = 1 << 8
	padCfg0GPIORxState    = 1 << 1
	padCfg0GPIOTxState    = 1 << 0
)

// RXEVCFG values.
const (
	rxEvCfgLevel    = 0
	rxEvCfgEdge     = 1
	rxEvCfgDisabled = 2
	rxEvCfgEdgeBoth = 3
)

const (
	padOwnBits   = 4
	padOwnMask   = 0xf
	padOwnHost   = 0
	lockTxOffset = 4
	lockStride   = 8
)

// RegisterKind names one of the registers the driver addresses for a pin.
type RegisterKind int

// Register kinds.
const (
	RegPadCfg0 RegisterKind = iota
	RegPadCfg1
	RegPadCfg2
	RegInterruptEnable
	RegInterruptStatus
	RegPadOwner
	RegPadCfgLock
	RegPadCfgLockTx
	RegHostOwner
)

var registerKindNames = map[RegisterKind]string{
	RegPadCfg0:         "PADCFG0",
	RegPadCfg1:         "PADCFG1",
	RegPadCfg2:         "PADCFG2",
	RegInterruptEnable: "GPI_IE",
	RegInterruptStatus: "GPI_IS",
	RegPadOwner:        "PAD_OWN",
	RegPadCfgLock:      "PADCFGLOCK",
	RegPadCfgLockTx:    "PADCFGLOCKTX",
	RegHostOwner:       "HOSTSW_OWN",
}

func (k RegisterKind) String() string {
	if name, ok := registerKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RegisterKind(%d)", int(k))
}

// RegisterKinds lists every kind in declaration order.
func RegisterKinds() []RegisterKind {
	return []RegisterKind{
		RegPadCfg0, RegPadCfg1, RegPadCfg2,
		RegInterruptEnable, RegInterruptStatus,
		RegPadOwner, RegPadCfgLock, RegPadCfgLockTx, RegHostOwner,
	}
}

func groupMask(size uint) uint32 {
	if size >= 32 {
		return ^uint32(0)
	}
	return 1<<size - 1
}
