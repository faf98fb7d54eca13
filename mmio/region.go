// Package mmio provides typed access to memory-mapped register regions. A Region is either a
// physical mapping obtained through periph's pmem package or a simulated register file used
// by tests and the simulator.
package mmio

import (
	"fmt"
)

// Resource describes one memory BAR handed over by the host's resource discovery.
type Resource struct {
	Bar  uint
	Base uint64
	Size int
}

func (r Resource) String() string {
	return fmt.Sprintf("bar%d@%#x+%#x", r.Bar, r.Base, r.Size)
}

// A Region is a mapped window of 32-bit registers. Offsets are in bytes from Base and must be
// 4-byte aligned; accesses outside the window panic like a bus fault would.
type Region interface {
	Base() uint64
	Size() int
	Read32(off uint32) uint32
	Write32(off, val uint32)
	Close() error
}

// A Mapper turns a Resource into a Region.
type Mapper interface {
	Map(res Resource) (Region, error)
}

// Update performs a read-modify-write on a single register: bits in clear are cleared, then
// bits in set are set. The new value is only written when it differs from the old one. It
// returns the value left in the register.
func Update(r Region, off, clear, set uint32) uint32 {
	old := r.Read32(off)
	val := (old &^ clear) | set
	if val != old {
		r.Write32(off, val)
	}
	return val
}

func checkOffset(off uint32, words int) int {
	if off%4 != 0 {
		panic(fmt.Sprintf("mmio: unaligned register offset %#x", off))
	}
	idx := int(off / 4)
	if idx >= words {
		panic(fmt.Sprintf("mmio: register offset %#x outside region of %#x bytes", off, words*4))
	}
	return idx
}
