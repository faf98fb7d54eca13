package mmio

import (
	"github.com/pkg/errors"
	"periph.io/x/host/v3/pmem"
)

// PhysMapper maps BARs from physical memory through /dev/mem.
type PhysMapper struct{}

// Map maps the resource and returns a Region over it.
func (PhysMapper) Map(res Resource) (Region, error) {
	if res.Size <= 0 || res.Size%4 != 0 {
		return nil, errors.Errorf("invalid size %#x for %s", res.Size, res)
	}
	view, err := pmem.Map(res.Base, res.Size)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping %s", res)
	}
	return &physRegion{res: res, view: view, words: view.Uint32()}, nil
}

type physRegion struct {
	res   Resource
	view  *pmem.View
	words []uint32
}

func (p *physRegion) Base() uint64 {
	return p.res.Base
}

func (p *physRegion) Size() int {
	return p.res.Size
}

func (p *physRegion) Read32(off uint32) uint32 {
	return p.words[checkOffset(off, len(p.words))]
}

func (p *physRegion) Write32(off, val uint32) {
	p.words[checkOffset(off, len(p.words))] = val
}

func (p *physRegion) Close() error {
	p.words = nil
	return p.view.Close()
}
