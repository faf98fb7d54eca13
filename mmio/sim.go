package mmio

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SimRegion is a simulated register file. Driver-side accesses go through Read32/Write32 and
// honour write-one-to-clear windows; the hardware side uses Poke/Peek, which bypass them.
type SimRegion struct {
	mu     sync.Mutex
	base   uint64
	words  []uint32
	w1c    map[int]bool
	writes int
	closed bool
}

// NewSimRegion returns a zeroed register file of size bytes at base.
func NewSimRegion(base uint64, size int) *SimRegion {
	return &SimRegion{
		base:  base,
		words: make([]uint32, size/4),
		w1c:   map[int]bool{},
	}
}

// SetWriteOneToClear marks words registers starting at off as write-one-to-clear.
func (s *SimRegion) SetWriteOneToClear(off uint32, words int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < words; i++ {
		s.w1c[checkOffset(off+uint32(i*4), len(s.words))] = true
	}
}

// Base implements Region.
func (s *SimRegion) Base() uint64 {
	return s.base
}

// Size implements Region.
func (s *SimRegion) Size() int {
	return len(s.words) * 4
}

// Read32 implements Region.
func (s *SimRegion) Read32(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[checkOffset(off, len(s.words))]
}

// Write32 implements Region.
func (s *SimRegion) Write32(off, val uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := checkOffset(off, len(s.words))
	s.writes++
	if s.w1c[idx] {
		s.words[idx] &^= val
		return
	}
	s.words[idx] = val
}

// Close implements Region.
func (s *SimRegion) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("region already closed")
	}
	s.closed = true
	return nil
}

// Poke sets a register from the hardware side.
func (s *SimRegion) Poke(off, val uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[checkOffset(off, len(s.words))] = val
}

// Peek reads a register from the hardware side.
func (s *SimRegion) Peek(off uint32) uint32 {
	return s.Read32(off)
}

// Writes returns how many driver-side writes the region has seen.
func (s *SimRegion) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Snapshot copies the whole register file.
func (s *SimRegion) Snapshot() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.words...)
}

// Closed reports whether Close was called.
func (s *SimRegion) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SimMapper hands out SimRegions. Regions are created on first Map and kept so tests can reach
// them by BAR; Prepare lets a test seed a region before the driver maps it.
type SimMapper struct {
	mu      sync.Mutex
	regions map[uint]*SimRegion
	failing map[uint]error
}

// NewSimMapper returns an empty SimMapper.
func NewSimMapper() *SimMapper {
	return &SimMapper{regions: map[uint]*SimRegion{}, failing: map[uint]error{}}
}

// Prepare creates (or returns) the region for res without mapping it.
func (m *SimMapper) Prepare(res Resource) *SimRegion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepareLocked(res)
}

func (m *SimMapper) prepareLocked(res Resource) *SimRegion {
	if r, ok := m.regions[res.Bar]; ok {
		return r
	}
	r := NewSimRegion(res.Base, res.Size)
	m.regions[res.Bar] = r
	return r
}

// Fail makes future Map calls for bar return err.
func (m *SimMapper) Fail(bar uint, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[bar] = err
}

// Region returns the region for bar, if it exists.
func (m *SimMapper) Region(bar uint) (*SimRegion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regions[bar]
	return r, ok
}

// Map implements Mapper.
func (m *SimMapper) Map(res Resource) (Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failing[res.Bar]; ok {
		return nil, errors.Wrapf(err, "mapping %s", res)
	}
	if res.Size <= 0 || res.Size%4 != 0 {
		return nil, errors.Errorf("invalid size %#x for %s", res.Size, res)
	}
	r := m.prepareLocked(res)
	r.mu.Lock()
	r.closed = false
	r.mu.Unlock()
	return r, nil
}

// Close closes every region that is still open.
func (m *SimMapper) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	for _, r := range m.regions {
		if !r.Closed() {
			err = multierr.Combine(err, r.Close())
		}
	}
	return err
}
