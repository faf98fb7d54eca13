package pinctrl

import (
	"github.com/pkg/errors"

	"go.viam.com/pinctrl/mmio"
	"go.viam.com/pinctrl/topology"
)

// Location is where a pin sits in the controller.
type Location struct {
	Community     int
	PadGroupIndex int
	PadGroup      topology.PadGroup
	// PadNo is the pin's index within its community.
	PadNo uint
	// GroupOffset is the pin's bit position within its pad group's registers.
	GroupOffset uint
}

// Locate finds the community and pad group holding pin.
func (c *Controller) Locate(pin uint) (Location, error) {
	_, loc, err := c.locate(pin)
	return loc, err
}

func (c *Controller) locate(pin uint) (*community, Location, error) {
	for _, comm := range c.communities {
		if !comm.desc.Contains(pin) {
			continue
		}
		for j, g := range comm.padGroups {
			if g.Contains(pin) {
				return comm, Location{
					Community:     comm.idx,
					PadGroupIndex: j,
					PadGroup:      g,
					PadNo:         pin - comm.desc.PinBase,
					GroupOffset:   pin - g.Base,
				}, nil
			}
		}
	}
	return nil, Location{}, errors.Wrapf(ErrOutOfRange, "pin %d", pin)
}

// locateActive is locate restricted to powered communities.
func (c *Controller) locateActive(pin uint) (*community, Location, error) {
	comm, loc, err := c.locate(pin)
	if err != nil {
		return nil, Location{}, err
	}
	if !comm.active {
		return nil, Location{}, errors.Wrapf(ErrNotSupported, "pin %d: community %d is inactive", pin, comm.idx)
	}
	return comm, loc, nil
}

// GPIOToPin translates a GPIO number into a pin number through the pad groups' GPIO bases.
// Pad groups without a GPIO mapping are never matched.
func (c *Controller) GPIOToPin(gpio uint) (uint, error) {
	for _, comm := range c.communities {
		for _, g := range comm.padGroups {
			if g.GPIOBase == topology.NoGPIO {
				continue
			}
			base := uint(g.GPIOBase)
			if gpio >= base && gpio < base+g.Size {
				return g.Base + gpio - base, nil
			}
		}
	}
	return 0, errors.Wrapf(ErrOutOfRange, "gpio %d", gpio)
}

// PinToGPIO is the inverse of GPIOToPin.
func (c *Controller) PinToGPIO(pin uint) (uint, error) {
	_, loc, err := c.locate(pin)
	if err != nil {
		return 0, err
	}
	if loc.PadGroup.GPIOBase == topology.NoGPIO {
		return 0, errors.Wrapf(ErrNotSupported, "pin %d has no gpio number", pin)
	}
	return uint(loc.PadGroup.GPIOBase) + loc.GroupOffset, nil
}

// RegisterAddress returns the absolute address of a pin's register of the given kind.
func (c *Controller) RegisterAddress(pin uint, kind RegisterKind) (uint64, error) {
	comm, loc, err := c.locate(pin)
	if err != nil {
		return 0, err
	}
	if !comm.mapped {
		return 0, errors.Wrapf(ErrNotSupported, "pin %d: community %d is not mapped", pin, comm.idx)
	}
	off, err := comm.offset(kind, loc)
	if err != nil {
		return 0, errors.Wrapf(err, "pin %d", pin)
	}
	return comm.region.Base() + uint64(off), nil
}

func (comm *community) supports(kind RegisterKind) bool {
	switch kind {
	case RegPadCfg0, RegPadCfg1, RegInterruptStatus:
		return true
	case RegPadCfg2:
		return comm.features.Has(topology.FeatureDebounce)
	case RegInterruptEnable:
		return comm.desc.IEOffset != 0
	case RegPadOwner:
		return comm.desc.PadOwnOffset != 0
	case RegPadCfgLock, RegPadCfgLockTx:
		return comm.desc.PadCfgLockOffset != 0
	case RegHostOwner:
		return comm.desc.HostOwnOffset != 0
	default:
		return false
	}
}

// offset returns the community-relative offset of a register. Registers shared by a pad group
// are indexed by the group's RegNum or PadOwnNum, never by pin arithmetic.
func (comm *community) offset(kind RegisterKind, loc Location) (uint32, error) {
	if !comm.supports(kind) {
		return 0, errors.Wrapf(ErrNotSupported, "community %d has no %s register", comm.idx, kind)
	}
	g := loc.PadGroup
	switch kind {
	case RegPadCfg0:
		return comm.padBar + uint32(loc.PadNo)*comm.padStride() + padCfg0, nil
	case RegPadCfg1:
		return comm.padBar + uint32(loc.PadNo)*comm.padStride() + padCfg1, nil
	case RegPadCfg2:
		return comm.padBar + uint32(loc.PadNo)*comm.padStride() + padCfg2, nil
	case RegInterruptEnable:
		return comm.desc.IEOffset + uint32(g.RegNum)*4, nil
	case RegInterruptStatus:
		return regGPIIS + uint32(g.RegNum)*4, nil
	case RegPadOwner:
		return comm.desc.PadOwnOffset + uint32(g.PadOwnNum)*4 + uint32(loc.GroupOffset/8)*4, nil
	case RegPadCfgLock:
		return comm.desc.PadCfgLockOffset + uint32(g.RegNum)*lockStride, nil
	case RegPadCfgLockTx:
		return comm.desc.PadCfgLockOffset + uint32(g.RegNum)*lockStride + lockTxOffset, nil
	case RegHostOwner:
		return comm.desc.HostOwnOffset + uint32(g.RegNum)*4, nil
	}
	return 0, errors.Wrapf(ErrNotSupported, "unknown register kind %d", int(kind))
}

func (comm *community) mustOffset(kind RegisterKind, loc Location) uint32 {
	off, err := comm.offset(kind, loc)
	if err != nil {
		panic(err)
	}
	return off
}

func (comm *community) read(kind RegisterKind, loc Location) uint32 {
	return comm.region.Read32(comm.mustOffset(kind, loc))
}

func (comm *community) write(kind RegisterKind, loc Location, val uint32) {
	comm.region.Write32(comm.mustOffset(kind, loc), val)
}

func (comm *community) update(kind RegisterKind, loc Location, clear, set uint32) uint32 {
	return mmio.Update(comm.region, comm.mustOffset(kind, loc), clear, set)
}

func (comm *community) bit(loc Location) uint32 {
	return 1 << loc.GroupOffset
}

// groupLocation addresses a pad group's shared registers.
func (comm *community) groupLocation(j int) Location {
	g := comm.padGroups[j]
	return Location{Community: comm.idx, PadGroupIndex: j, PadGroup: g, PadNo: g.Base - comm.desc.PinBase}
}
