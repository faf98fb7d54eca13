package pinctrl

import (
	"context"
)

// DispatchStats counts the outcome of interrupt dispatch.
type DispatchStats struct {
	// Handled is the number of status bits delivered to a bound, enabled action.
	Handled int
	// Spurious is the number of status bits acknowledged with nobody to deliver them to.
	Spurious int
	// SkippedCommunities is the number of inactive communities passed over.
	SkippedCommunities int
}

// InterruptOccurred is the controller's hardware interrupt entry point. It does not block: the
// dispatch pass runs later on the work loop, and notifications arriving before it starts are
// merged into it.
func (c *Controller) InterruptOccurred() {
	c.loop.Interrupt()
}

// HandleInterrupt runs one dispatch pass on the work loop and waits for it.
func (c *Controller) HandleInterrupt(ctx context.Context) (DispatchStats, error) {
	var stats DispatchStats
	err := c.loop.Run(ctx, func(ctx context.Context) error {
		var err error
		stats, err = c.dispatch(ctx)
		return err
	})
	return stats, err
}

// Stats returns the totals of every dispatch pass so far.
func (c *Controller) Stats() DispatchStats {
	return DispatchStats{
		Handled:            int(c.handled.Load()),
		Spurious:           int(c.spurious.Load()),
		SkippedCommunities: int(c.skipped.Load()),
	}
}

// dispatch acknowledges and delivers every latched interrupt status bit. It runs on the loop.
// Passes are skipped while suspended and when an action re-enters dispatch.
func (c *Controller) dispatch(ctx context.Context) (DispatchStats, error) {
	var stats DispatchStats
	if !c.awake || c.interruptBusy {
		return stats, nil
	}
	c.interruptBusy = true
	defer func() {
		c.interruptBusy = false
		c.handled.Add(uint64(stats.Handled))
		c.spurious.Add(uint64(stats.Spurious))
		c.skipped.Add(uint64(stats.SkippedCommunities))
	}()

	needsSettle := c.cfg.SettleDelay > 0
	groupsRead := 0
	for _, comm := range c.communities {
		if !comm.active {
			stats.SkippedCommunities++
			continue
		}
		for j, g := range comm.padGroups {
			if groupsRead > 0 && needsSettle {
				c.clock.Sleep(c.cfg.SettleDelay)
				needsSettle = false
			}
			groupsRead++

			loc := comm.groupLocation(j)
			pending := comm.read(RegInterruptStatus, loc) & groupMask(g.Size)
			for bit := uint(0); pending != 0; bit++ {
				mask := uint32(1) << bit
				if pending&mask == 0 {
					continue
				}
				pending &^= mask
				pin := g.Base + bit
				comm.write(RegInterruptStatus, loc, mask)

				b, ok := comm.bindings[pin]
				if !ok || !b.enabled {
					stats.Spurious++
					c.logger.Debugw("spurious interrupt", "community", comm.idx, "pin", pin, "bound", ok)
					continue
				}
				b.action(ctx, b.owner, b.refcon, b.gpio)
				stats.Handled++
			}
		}
	}
	return stats, nil
}
