package pinctrl

import (
	"context"

	"golang.org/x/exp/slices"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/pinctrl/topology"
)

// PowerState is a device power state as delivered by the host framework.
type PowerState uint

const (
	// PowerStateOff is the low-power state; entering it saves pad context.
	PowerStateOff PowerState = 0
	// PowerStateOn is full power. Any non-zero state counts as on.
	PowerStateOn PowerState = 1
)

// SetPowerState suspends the controller on a transition to PowerStateOff and resumes it on a
// transition to any other state. Transitions to the current state do nothing. The whole save or
// restore runs as one unit on the work loop.
func (c *Controller) SetPowerState(ctx context.Context, state PowerState, device string) error {
	return c.loop.Run(ctx, func(ctx context.Context) error {
		wantAwake := state != PowerStateOff
		if wantAwake == c.awake {
			return nil
		}
		if wantAwake {
			c.resume()
		} else {
			c.suspend()
		}
		c.logger.Infow("power state changed", "device", device, "state", uint(state), "awake", c.awake)
		return nil
	})
}

// shouldPreserve reports whether a pin's pad context is saved across suspend: the pad must be
// usable and either in use by a consumer or routed to an interrupt controller by firmware.
func (c *Controller) shouldPreserve(comm *community, loc Location, pin uint) bool {
	if !comm.usable(loc) {
		return false
	}
	if _, found := slices.BinarySearch(c.registered, pin); found || c.muxClaimed[pin] {
		return true
	}
	return directIRQ(comm.read(RegPadCfg0, loc))
}

// directIRQ reports a GPIO-mode input that firmware routed straight to the IOxAPIC. Such pads
// are in use even though no consumer registered them.
func directIRQ(padcfg0 uint32) bool {
	if padcfg0&padCfg0PModeMask != 0 {
		return false
	}
	const want = padCfg0GPIOTxDis | padCfg0GPIROUTIOXAPIC
	return padcfg0&(want|padCfg0GPIORxDis) == want
}

func (c *Controller) suspend() {
	var saved int
	for i, p := range c.soc.Pins {
		pc := &c.pinCtx[i]
		*pc = pinContext{}
		comm, loc, err := c.locateActive(p.Number)
		if err != nil || !c.shouldPreserve(comm, loc, p.Number) {
			continue
		}
		pc.padcfg0 = comm.read(RegPadCfg0, loc) &^ padCfg0GPIORxState
		pc.padcfg1 = comm.read(RegPadCfg1, loc)
		if comm.supports(RegPadCfg2) {
			pc.padcfg2 = comm.read(RegPadCfg2, loc)
			pc.hasCfg2 = true
		}
		pc.saved = true
		saved++
	}

	for _, comm := range c.communities {
		comm.saved.saved = false
		if !comm.active {
			continue
		}
		for j := range comm.padGroups {
			loc := comm.groupLocation(j)
			if comm.supports(RegInterruptEnable) {
				comm.saved.intmask[j] = comm.read(RegInterruptEnable, loc)
			}
			if comm.supports(RegHostOwner) {
				comm.saved.hostown[j] = comm.read(RegHostOwner, loc)
			}
		}
		comm.saved.saved = true
	}

	c.suspendedPins = slices.Clone(c.registered)
	c.awake = false
	c.logger.Debugw("pad context saved", "pins", saved, "registered", len(c.suspendedPins))
}

func (c *Controller) resume() {
	c.irqInit()
	for _, comm := range c.communities {
		if !comm.saved.saved {
			continue
		}
		if !comm.active {
			c.logger.Warnw("community went inactive while suspended, not restoring it", "community", comm.idx)
			continue
		}
		for j, g := range comm.padGroups {
			loc := comm.groupLocation(j)
			if comm.supports(RegHostOwner) {
				if mask := c.groupBits(g, c.requested); mask != 0 {
					comm.update(RegHostOwner, loc, mask, comm.saved.hostown[j]&mask)
				}
			}
			if comm.supports(RegInterruptEnable) {
				if mask := c.groupBits(g, c.registeredAtSuspend); mask != 0 {
					comm.update(RegInterruptEnable, loc, mask, comm.saved.intmask[j]&mask)
				}
			}
		}
	}

	var restored int
	for i, p := range c.soc.Pins {
		pc := c.pinCtx[i]
		if !pc.saved {
			continue
		}
		comm, loc, err := c.locateActive(p.Number)
		if err != nil {
			c.logger.Warnw("skipping pad context restore", "pin", p.Number, "error", err)
			continue
		}
		comm.update(RegPadCfg0, loc, ^uint32(padCfg0GPIORxState), pc.padcfg0)
		comm.update(RegPadCfg1, loc, ^uint32(0), pc.padcfg1)
		if pc.hasCfg2 && comm.supports(RegPadCfg2) {
			comm.update(RegPadCfg2, loc, ^uint32(0), pc.padcfg2)
		}
		restored++
	}

	c.awake = true
	c.logger.Debugw("pad context restored", "pins", restored)
}

func (c *Controller) requested(pin uint) bool {
	return c.registeredAtSuspend(pin) || c.muxClaimed[pin]
}

func (c *Controller) registeredAtSuspend(pin uint) bool {
	_, found := slices.BinarySearch(c.suspendedPins, pin)
	return found
}

// groupBits collects the bits of a pad group whose pins satisfy want.
func (c *Controller) groupBits(g topology.PadGroup, want func(uint) bool) uint32 {
	var mask uint32
	for off := uint(0); off < g.Size; off++ {
		if want(g.Base + off) {
			mask |= 1 << off
		}
	}
	return mask
}

// GetPinStatus returns a GPIO's logical level: the driven level when its output buffer is
// enabled, else the sampled input.
func (c *Controller) GetPinStatus(ctx context.Context, gpioNum uint) (gpio.Level, error) {
	var level gpio.Level
	err := c.loop.Run(ctx, func(ctx context.Context) error {
		_, comm, loc, err := c.resolveGPIO(gpioNum)
		if err != nil {
			return err
		}
		v := comm.read(RegPadCfg0, loc)
		if v&padCfg0GPIOTxDis == 0 {
			level = v&padCfg0GPIOTxState != 0
		} else {
			level = v&padCfg0GPIORxState != 0
		}
		return nil
	})
	return level, err
}
