package pinctrl

import (
	"context"

	"github.com/pkg/errors"
)

// LockState is the pad configuration lock state of a pin.
type LockState int

// PADCFGLOCK alone soft-locks a pad and adding PADCFGLOCKTX hard-locks it. PADCFGLOCKTX alone
// guards only the output state and leaves the pad Unlocked.
const (
	// Unlocked pads accept every write.
	Unlocked LockState = iota
	// SoftLocked pads have their configuration frozen but interrupt enable still writable.
	SoftLocked
	// HardLocked pads accept no writes.
	HardLocked
)

func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case SoftLocked:
		return "soft-locked"
	case HardLocked:
		return "hard-locked"
	default:
		return "unknown"
	}
}

// PadState is a diagnostic view of a pin's ownership and lock state.
type PadState struct {
	Pin         uint
	OwnedByHost bool
	ACPIMode    bool
	Lock        LockState
	// TxLocked reports PADCFGLOCKTX, which guards the pad's output state.
	TxLocked bool
}

// Usable reports whether the host may reconfigure the pad.
func (s PadState) Usable() bool {
	return s.OwnedByHost && !s.ACPIMode && s.Lock == Unlocked
}

// ownedByHost reports whether PAD_OWN gives the pad to the host. Communities without PAD_OWN
// are always host owned.
func (comm *community) ownedByHost(loc Location) bool {
	if !comm.supports(RegPadOwner) {
		return true
	}
	shift := (loc.GroupOffset % 8) * padOwnBits
	return (comm.read(RegPadOwner, loc)>>shift)&padOwnMask == padOwnHost
}

// acpiMode reports whether HOSTSW_OWN leaves the pad under ACPI control.
func (comm *community) acpiMode(loc Location) bool {
	if !comm.supports(RegHostOwner) {
		return false
	}
	return comm.read(RegHostOwner, loc)&comm.bit(loc) == 0
}

func (comm *community) lockState(loc Location) LockState {
	if !comm.supports(RegPadCfgLock) {
		return Unlocked
	}
	bit := comm.bit(loc)
	cfg := comm.read(RegPadCfgLock, loc)&bit != 0
	tx := comm.read(RegPadCfgLockTx, loc)&bit != 0
	switch {
	case cfg && tx:
		return HardLocked
	case cfg:
		return SoftLocked
	default:
		return Unlocked
	}
}

func (comm *community) txLocked(loc Location) bool {
	if !comm.supports(RegPadCfgLockTx) {
		return false
	}
	return comm.read(RegPadCfgLockTx, loc)&comm.bit(loc) != 0
}

func (comm *community) padState(pin uint, loc Location) PadState {
	return PadState{
		Pin:         pin,
		OwnedByHost: comm.ownedByHost(loc),
		ACPIMode:    comm.acpiMode(loc),
		Lock:        comm.lockState(loc),
		TxLocked:    comm.txLocked(loc),
	}
}

type access int

const (
	accessPadConfig access = iota
	accessInterruptEnable
)

// checkWritable rejects writes to pads the host does not own or the lock forbids.
func (comm *community) checkWritable(pin uint, loc Location, a access) error {
	if !comm.ownedByHost(loc) || comm.acpiMode(loc) {
		return errors.Wrapf(ErrFirmwareOwned, "pin %d", pin)
	}
	st := comm.lockState(loc)
	if st == HardLocked || (a == accessPadConfig && st != Unlocked) {
		return errors.Wrapf(ErrLocked, "pin %d is %s", pin, st)
	}
	return nil
}

// usable is the pad condition for context preservation: host owned and unlocked.
func (comm *community) usable(loc Location) bool {
	return comm.ownedByHost(loc) && comm.lockState(loc) == Unlocked
}

// PadState reports the ownership and lock state of a GPIO.
func (c *Controller) PadState(ctx context.Context, gpio uint) (PadState, error) {
	var st PadState
	err := c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		st = comm.padState(pin, loc)
		return nil
	})
	return st, err
}

// resolveGPIO translates a GPIO number and locates it in a powered community.
func (c *Controller) resolveGPIO(gpio uint) (uint, *community, Location, error) {
	pin, err := c.GPIOToPin(gpio)
	if err != nil {
		return 0, nil, Location{}, err
	}
	comm, loc, err := c.locateActive(pin)
	if err != nil {
		return 0, nil, Location{}, err
	}
	return pin, comm, loc, nil
}
