// Package topology describes the static layout of an Intel-style GPIO controller: pins, mux
// groups, functions, communities and their pad groups. Tables are supplied by platform code and
// are never mutated by the driver.
package topology

import (
	"fmt"

	"periph.io/x/conn/v3/pin"
)

// MaxPadGroupSize is the number of pads one 32-bit status/enable word can describe.
const MaxPadGroupSize = 32

const (
	// GPIOBaseDefault makes a pad group's GPIO numbers start at its first pin.
	GPIOBaseDefault = 0
	// NoGPIO keeps a pad group out of the GPIO number space.
	NoGPIO = -1
)

// Feature is a bit set of optional controller capabilities.
type Feature uint

const (
	// FeatureDebounce means pads carry a PADCFG2 debounce register.
	FeatureDebounce Feature = 1 << iota
	// Feature1KPullDown means pads support a 1k pull-down.
	Feature1KPullDown
)

// Has reports whether all bits of f2 are set in f.
func (f Feature) Has(f2 Feature) bool {
	return f&f2 == f2
}

// Pin describes one pad.
type Pin struct {
	Number     uint
	Name       string
	DriverData interface{}
}

// Group is a named set of pins muxed together.
type Group struct {
	Name string
	Pins []uint
	Mode Mode
}

// Function is a mux function that can be routed through any of its groups.
type Function struct {
	Name   pin.Func
	Groups []string
}

// PadGroup is a hardware grouping of up to 32 consecutive pads inside a community. Base is an
// absolute pin number.
type PadGroup struct {
	RegNum    uint
	Base      uint
	Size      uint
	GPIOBase  int
	PadOwnNum uint
}

// Contains reports whether pin falls inside the group.
func (g PadGroup) Contains(pin uint) bool {
	return pin >= g.Base && pin < g.Base+g.Size
}

func (g PadGroup) String() string {
	return fmt.Sprintf("gpp%d[%d,%d)", g.RegNum, g.Base, g.Base+g.Size)
}

// Community is a bank of pins sharing one register window. A zero register offset means the
// community lacks that register.
type Community struct {
	Bar              uint
	PadOwnOffset     uint32
	PadCfgLockOffset uint32
	HostOwnOffset    uint32
	IEOffset         uint32
	PinBase          uint
	NPins            uint
	// GPPSize is the pad group size used when PadGroups is empty.
	GPPSize uint
	// GPPNumPadOwnRegs is how many PAD_OWN registers each pad group consumes; 0 derives it
	// from the group size.
	GPPNumPadOwnRegs uint
	Features         Feature
	PadGroups        []PadGroup
}

// Contains reports whether pin falls inside the community.
func (c Community) Contains(pin uint) bool {
	return pin >= c.PinBase && pin < c.PinBase+c.NPins
}

// SoC bundles the topology tables of one controller.
type SoC struct {
	Name        string
	Pins        []Pin
	Groups      []Group
	Functions   []Function
	Communities []Community
}

// PinIndex returns the position of pin number in s.Pins.
func (s *SoC) PinIndex(number uint) (int, bool) {
	for i, p := range s.Pins {
		if p.Number == number {
			return i, true
		}
	}
	return 0, false
}

// Group returns the group called name.
func (s *SoC) Group(name string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Function returns the function called name.
func (s *SoC) Function(name pin.Func) (Function, bool) {
	for _, f := range s.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}
