// Package inject provides mmio types whose behavior tests can override one method at a time.
package inject

import (
	"sync"

	"go.viam.com/pinctrl/mmio"
)

// Region is an injected mmio.Region. Methods without an override fall through to the embedded
// Region.
type Region struct {
	mmio.Region
	BaseFunc    func() uint64
	SizeFunc    func() int
	Read32Func  func(off uint32) uint32
	Write32Func func(off, val uint32)
	CloseFunc   func() error

	mu       sync.Mutex
	write32s [][]uint32
}

// Base calls the injected Base or the real version.
func (r *Region) Base() uint64 {
	if r.BaseFunc == nil {
		return r.Region.Base()
	}
	return r.BaseFunc()
}

// Size calls the injected Size or the real version.
func (r *Region) Size() int {
	if r.SizeFunc == nil {
		return r.Region.Size()
	}
	return r.SizeFunc()
}

// Read32 calls the injected Read32 or the real version.
func (r *Region) Read32(off uint32) uint32 {
	if r.Read32Func == nil {
		return r.Region.Read32(off)
	}
	return r.Read32Func(off)
}

// Write32 calls the injected Write32 or the real version.
func (r *Region) Write32(off, val uint32) {
	r.mu.Lock()
	r.write32s = append(r.write32s, []uint32{off, val})
	r.mu.Unlock()
	if r.Write32Func == nil {
		r.Region.Write32(off, val)
		return
	}
	r.Write32Func(off, val)
}

// Write32Cap returns the (offset, value) pairs received by Write32 so far, and then clears them.
func (r *Region) Write32Cap() [][]uint32 {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.write32s = nil }()
	return r.write32s
}

// Close calls the injected Close or the real version.
func (r *Region) Close() error {
	if r.CloseFunc == nil {
		return r.Region.Close()
	}
	return r.CloseFunc()
}

// Mapper is an injected mmio.Mapper.
type Mapper struct {
	mmio.Mapper
	MapFunc func(res mmio.Resource) (mmio.Region, error)
}

// Map calls the injected Map or the real version.
func (m *Mapper) Map(res mmio.Resource) (mmio.Region, error) {
	if m.MapFunc == nil {
		return m.Mapper.Map(res)
	}
	return m.MapFunc(res)
}
