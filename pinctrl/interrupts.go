package pinctrl

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"periph.io/x/conn/v3/gpio"
)

// InterruptType is a bit mask describing what triggers a pin's interrupt.
type InterruptType uint

// Interrupt types. Edge bits may be combined with each other but not with level bits, and only
// one level bit may be set.
const (
	TypeNone        InterruptType = 0
	TypeEdgeRising  InterruptType = 1 << 0
	TypeEdgeFalling InterruptType = 1 << 1
	TypeEdgeBoth                  = TypeEdgeRising | TypeEdgeFalling
	TypeLevelHigh   InterruptType = 1 << 2
	TypeLevelLow    InterruptType = 1 << 3
)

func (t InterruptType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeEdgeRising:
		return "edge-rising"
	case TypeEdgeFalling:
		return "edge-falling"
	case TypeEdgeBoth:
		return "edge-both"
	case TypeLevelHigh:
		return "level-high"
	case TypeLevelLow:
		return "level-low"
	default:
		return "invalid"
	}
}

// padCfg0 returns the RXEVCFG and RXINV bits expressing t.
func (t InterruptType) padCfg0() (uint32, error) {
	switch t {
	case TypeNone:
		return rxEvCfgDisabled << padCfg0RxEvCfgShift, nil
	case TypeEdgeRising:
		return rxEvCfgEdge << padCfg0RxEvCfgShift, nil
	case TypeEdgeFalling:
		return rxEvCfgEdge<<padCfg0RxEvCfgShift | padCfg0RxInv, nil
	case TypeEdgeBoth:
		return rxEvCfgEdgeBoth << padCfg0RxEvCfgShift, nil
	case TypeLevelHigh:
		return rxEvCfgLevel << padCfg0RxEvCfgShift, nil
	case TypeLevelLow:
		return rxEvCfgLevel<<padCfg0RxEvCfgShift | padCfg0RxInv, nil
	}
	return 0, errors.Wrapf(ErrNotSupported, "interrupt type %#x", uint(t))
}

func interruptTypeFromPadCfg0(v uint32) InterruptType {
	inverted := v&padCfg0RxInv != 0
	switch (v & padCfg0RxEvCfgMask) >> padCfg0RxEvCfgShift {
	case rxEvCfgLevel:
		if inverted {
			return TypeLevelLow
		}
		return TypeLevelHigh
	case rxEvCfgEdge:
		if inverted {
			return TypeEdgeFalling
		}
		return TypeEdgeRising
	case rxEvCfgEdgeBoth:
		return TypeEdgeBoth
	default:
		return TypeNone
	}
}

// InterruptTypeFromEdge converts a periph edge.
func InterruptTypeFromEdge(e gpio.Edge) InterruptType {
	switch e {
	case gpio.RisingEdge:
		return TypeEdgeRising
	case gpio.FallingEdge:
		return TypeEdgeFalling
	case gpio.BothEdges:
		return TypeEdgeBoth
	default:
		return TypeNone
	}
}

// Edge converts t to a periph edge. Level types have no edge equivalent.
func (t InterruptType) Edge() (gpio.Edge, bool) {
	switch t {
	case TypeNone:
		return gpio.NoEdge, true
	case TypeEdgeRising:
		return gpio.RisingEdge, true
	case TypeEdgeFalling:
		return gpio.FallingEdge, true
	case TypeEdgeBoth:
		return gpio.BothEdges, true
	default:
		return gpio.NoEdge, false
	}
}

// InterruptAction is invoked on the work loop when a bound pin's interrupt fires. ctx belongs
// to the loop, so the action may call back into the controller with it.
type InterruptAction func(ctx context.Context, owner, refcon interface{}, gpio uint)

type binding struct {
	owner   interface{}
	refcon  interface{}
	action  InterruptAction
	gpio    uint
	enabled bool
}

// GetInterruptType returns the pin's interrupt type. Until a type is set it is read back from
// the pad configuration.
func (c *Controller) GetInterruptType(ctx context.Context, gpio uint) (InterruptType, error) {
	var t InterruptType
	err := c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		if !comm.supports(RegInterruptEnable) {
			return errors.Wrapf(ErrNotSupported, "gpio %d has no interrupt capability", gpio)
		}
		stored, ok := comm.types[pin]
		if !ok {
			stored = interruptTypeFromPadCfg0(comm.read(RegPadCfg0, loc))
			comm.types[pin] = stored
		}
		t = stored
		return nil
	})
	return t, err
}

// RegisterInterrupt binds action to a GPIO. The interrupt stays masked until EnableInterrupt.
func (c *Controller) RegisterInterrupt(
	ctx context.Context,
	gpio uint,
	owner interface{},
	action InterruptAction,
	refcon interface{},
) error {
	if action == nil {
		return errors.New("interrupt action is required")
	}
	return c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		if !comm.supports(RegInterruptEnable) {
			return errors.Wrapf(ErrNotSupported, "gpio %d has no interrupt capability", gpio)
		}
		if _, ok := comm.bindings[pin]; ok {
			return errors.Wrapf(ErrAlreadyRegistered, "gpio %d", gpio)
		}
		comm.bindings[pin] = &binding{owner: owner, refcon: refcon, action: action, gpio: gpio}
		if comm.checkWritable(pin, loc, accessInterruptEnable) == nil {
			comm.update(RegInterruptEnable, loc, comm.bit(loc), 0)
		}
		if i, found := slices.BinarySearch(c.registered, pin); !found {
			c.registered = slices.Insert(c.registered, i, pin)
		}
		c.logger.Debugw("interrupt registered", "gpio", gpio, "pin", pin)
		return nil
	})
}

// UnregisterInterrupt removes a GPIO's binding and masks its interrupt.
func (c *Controller) UnregisterInterrupt(ctx context.Context, gpio uint) error {
	return c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		if _, ok := comm.bindings[pin]; !ok {
			return errors.Wrapf(ErrNotRegistered, "gpio %d", gpio)
		}
		delete(comm.bindings, pin)
		if comm.checkWritable(pin, loc, accessInterruptEnable) == nil {
			comm.update(RegInterruptEnable, loc, comm.bit(loc), 0)
		}
		if i, found := slices.BinarySearch(c.registered, pin); found {
			c.registered = slices.Delete(c.registered, i, i+1)
		}
		c.logger.Debugw("interrupt unregistered", "gpio", gpio, "pin", pin)
		return nil
	})
}

// EnableInterrupt unmasks a registered GPIO's interrupt, programming its stored type first and
// discarding any status latched while it was masked.
func (c *Controller) EnableInterrupt(ctx context.Context, gpio uint) error {
	return c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		b, ok := comm.bindings[pin]
		if !ok {
			return errors.Wrapf(ErrNotRegistered, "gpio %d", gpio)
		}
		if err := comm.checkWritable(pin, loc, accessInterruptEnable); err != nil {
			return err
		}
		if t, ok := comm.types[pin]; ok && comm.lockState(loc) == Unlocked {
			bits, err := t.padCfg0()
			if err != nil {
				return err
			}
			comm.update(RegPadCfg0, loc, padCfg0RxEvCfgMask|padCfg0RxInv, bits)
		}
		comm.write(RegInterruptStatus, loc, comm.bit(loc))
		comm.update(RegInterruptEnable, loc, 0, comm.bit(loc))
		b.enabled = true
		return nil
	})
}

// DisableInterrupt masks a GPIO's interrupt. Its binding is kept.
func (c *Controller) DisableInterrupt(ctx context.Context, gpio uint) error {
	return c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		if !comm.supports(RegInterruptEnable) {
			return errors.Wrapf(ErrNotSupported, "gpio %d has no interrupt capability", gpio)
		}
		if err := comm.checkWritable(pin, loc, accessInterruptEnable); err != nil {
			return err
		}
		comm.update(RegInterruptEnable, loc, comm.bit(loc), 0)
		if b, ok := comm.bindings[pin]; ok {
			b.enabled = false
		}
		return nil
	})
}

// SetInterruptTypeForPin programs a GPIO's trigger in its pad configuration.
func (c *Controller) SetInterruptTypeForPin(ctx context.Context, gpio uint, t InterruptType) error {
	bits, err := t.padCfg0()
	if err != nil {
		return errors.Wrapf(err, "gpio %d", gpio)
	}
	return c.loop.Run(ctx, func(ctx context.Context) error {
		pin, comm, loc, err := c.resolveGPIO(gpio)
		if err != nil {
			return err
		}
		if !comm.supports(RegInterruptEnable) {
			return errors.Wrapf(ErrNotSupported, "gpio %d has no interrupt capability", gpio)
		}
		if err := comm.checkWritable(pin, loc, accessPadConfig); err != nil {
			return err
		}
		comm.update(RegPadCfg0, loc, padCfg0RxEvCfgMask|padCfg0RxInv, bits)
		comm.types[pin] = t
		return nil
	})
}

// RegisteredPins returns the pins bound for interrupt delivery, in ascending order.
func (c *Controller) RegisteredPins(ctx context.Context) ([]uint, error) {
	var pins []uint
	err := c.loop.Run(ctx, func(ctx context.Context) error {
		pins = slices.Clone(c.registered)
		return nil
	})
	return pins, err
}

// irqInit masks every interrupt and acknowledges latched status on the active communities,
// discarding whatever firmware left behind. It runs at attach and at the start of resume.
func (c *Controller) irqInit() {
	for _, comm := range c.communities {
		if !comm.active {
			continue
		}
		for j, g := range comm.padGroups {
			loc := comm.groupLocation(j)
			if comm.supports(RegInterruptEnable) {
				comm.write(RegInterruptEnable, loc, 0)
			}
			comm.write(RegInterruptStatus, loc, groupMask(g.Size))
		}
	}
}
