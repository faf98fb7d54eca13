package pinctrl

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"periph.io/x/conn/v3/pin"

	"go.viam.com/pinctrl/topology"
)

// ActivateGroup routes function through group by writing each pin's pad mode. Every pin is
// checked before anything is written, so a rejected activation leaves the pads untouched.
// Activated pins are preserved across suspend.
func (c *Controller) ActivateGroup(ctx context.Context, function pin.Func, group string) error {
	fn, ok := c.soc.Function(function)
	if !ok {
		return errors.Wrapf(ErrNotSupported, "unknown function %q", function)
	}
	if !lo.Contains(fn.Groups, group) {
		return errors.Wrapf(ErrNotSupported, "function %q cannot use group %q", function, group)
	}
	g, ok := c.soc.Group(group)
	if !ok {
		return errors.Wrapf(ErrNotSupported, "unknown group %q", group)
	}

	type target struct {
		pin  uint
		comm *community
		loc  Location
		mode uint
	}
	return c.loop.Run(ctx, func(ctx context.Context) error {
		targets := make([]target, 0, len(g.Pins))
		for i, p := range g.Pins {
			comm, loc, err := c.locateActive(p)
			if err != nil {
				return err
			}
			mode, err := g.Mode.ForPin(i)
			if err != nil {
				return errors.Wrapf(err, "group %q", group)
			}
			if mode > padCfg0PModeMask>>padCfg0PModeShift {
				return errors.Wrapf(ErrNotSupported, "pad mode %d for pin %d", mode, p)
			}
			if err := comm.checkWritable(p, loc, accessPadConfig); err != nil {
				return err
			}
			targets = append(targets, target{pin: p, comm: comm, loc: loc, mode: mode})
		}
		for _, t := range targets {
			t.comm.update(RegPadCfg0, t.loc, padCfg0PModeMask, uint32(t.mode)<<padCfg0PModeShift)
			c.muxClaimed[t.pin] = true
		}
		c.logger.Debugw("group activated", "function", function, "group", group, "pins", len(targets))
		return nil
	})
}

// FunctionNames lists the mux functions of the topology.
func (c *Controller) FunctionNames() []pin.Func {
	return lo.Map(c.soc.Functions, func(f topology.Function, _ int) pin.Func { return f.Name })
}

// FunctionGroups lists the groups a function can be routed through.
func (c *Controller) FunctionGroups(function pin.Func) ([]string, error) {
	fn, ok := c.soc.Function(function)
	if !ok {
		return nil, errors.Wrapf(ErrNotSupported, "unknown function %q", function)
	}
	return append([]string(nil), fn.Groups...), nil
}

// GroupPins lists the pins of a group.
func (c *Controller) GroupPins(group string) ([]uint, error) {
	g, ok := c.soc.Group(group)
	if !ok {
		return nil, errors.Wrapf(ErrNotSupported, "unknown group %q", group)
	}
	return append([]uint(nil), g.Pins...), nil
}
