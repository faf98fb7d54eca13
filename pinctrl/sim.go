package pinctrl

import (
	"github.com/pkg/errors"

	"go.viam.com/pinctrl/mmio"
	"go.viam.com/pinctrl/topology"
)

const (
	simBase       = 0xfd000000
	simBarStride  = 0x100000
	simRegionSize = 0x1000
	simPadBar     = 0x400
)

// SimulatedHardware is a register-level stand-in for a controller: one simulated region per
// community BAR, seeded with power-on contents. Every pad starts host owned in GPIO input mode
// with interrupts masked.
type SimulatedHardware struct {
	Mapper    *mmio.SimMapper
	Resources []mmio.Resource
	soc       *topology.SoC
	debounce  bool
}

// NewSimulatedHardware builds simulated registers for soc. With debounce set, every community
// reports a revision that has PADCFG2.
func NewSimulatedHardware(soc *topology.SoC, debounce bool) *SimulatedHardware {
	h := &SimulatedHardware{Mapper: mmio.NewSimMapper(), soc: soc, debounce: debounce}
	for _, comm := range soc.Communities {
		res := mmio.Resource{Bar: comm.Bar, Base: simBase + uint64(comm.Bar)*simBarStride, Size: simRegionSize}
		r := h.Mapper.Prepare(res)
		h.Resources = append(h.Resources, res)
		r.SetWriteOneToClear(regGPIIS, topology.MaxPadGroupSize/4)
		r.Poke(regPadBar, simPadBar)
		if debounce {
			r.Poke(regRevID, revIDDebounce<<revIDShift)
		}
		stride := uint32(padCfgStride)
		if debounce || comm.Features.Has(topology.FeatureDebounce) {
			stride = padCfgStrideDebounce
		}
		for pad := uint32(0); pad < uint32(comm.NPins); pad++ {
			r.Poke(simPadBar+pad*stride, rxEvCfgDisabled<<padCfg0RxEvCfgShift|padCfg0GPIOTxDis)
		}
		if comm.HostOwnOffset != 0 {
			for _, g := range comm.ResolvePadGroups() {
				r.Poke(comm.HostOwnOffset+uint32(g.RegNum)*4, groupMask(g.Size))
			}
		}
	}
	return h
}

// Raise latches pin's interrupt status bit, as the hardware would on a trigger.
func (h *SimulatedHardware) Raise(pin uint) error {
	for _, comm := range h.soc.Communities {
		if !comm.Contains(pin) {
			continue
		}
		r, ok := h.Mapper.Region(comm.Bar)
		if !ok {
			return errors.Errorf("no region for bar %d", comm.Bar)
		}
		for _, g := range comm.ResolvePadGroups() {
			if g.Contains(pin) {
				off := regGPIIS + uint32(g.RegNum)*4
				r.Poke(off, r.Peek(off)|1<<(pin-g.Base))
				return nil
			}
		}
	}
	return errors.Wrapf(ErrOutOfRange, "pin %d", pin)
}
