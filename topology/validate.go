package topology

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/pin"
)

// Validate checks the invariants the driver relies on and reports every violation it finds.
func (s *SoC) Validate() error {
	if s.Name == "" {
		return errors.New("soc has no name")
	}
	if len(s.Communities) == 0 {
		return errors.Errorf("soc %q declares no communities", s.Name)
	}

	var err error
	numbers := lo.Map(s.Pins, func(p Pin, _ int) uint { return p.Number })
	for _, dup := range lo.FindDuplicates(numbers) {
		err = multierr.Append(err, errors.Errorf("pin %d declared more than once", dup))
	}

	for i, c := range s.Communities {
		err = multierr.Append(err, c.validate(i))
		for j := 0; j < i; j++ {
			o := s.Communities[j]
			if c.PinBase < o.PinBase+o.NPins && o.PinBase < c.PinBase+c.NPins {
				err = multierr.Append(err, errors.Errorf("communities %d and %d overlap", j, i))
			}
			if c.Bar == o.Bar {
				err = multierr.Append(err, errors.Errorf("communities %d and %d share bar %d", j, i, c.Bar))
			}
		}
	}
	err = multierr.Append(err, s.validateGPIORanges())

	for _, p := range s.Pins {
		if !lo.ContainsBy(s.Communities, func(c Community) bool { return c.Contains(p.Number) }) {
			err = multierr.Append(err, errors.Errorf("pin %d (%s) is outside every community", p.Number, p.Name))
		}
	}

	groupNames := lo.Map(s.Groups, func(g Group, _ int) string { return g.Name })
	for _, dup := range lo.FindDuplicates(groupNames) {
		err = multierr.Append(err, errors.Errorf("group %q declared more than once", dup))
	}
	for _, g := range s.Groups {
		err = multierr.Append(err, s.validateGroup(g, numbers))
	}

	funcNames := lo.Map(s.Functions, func(f Function, _ int) pin.Func { return f.Name })
	for _, dup := range lo.FindDuplicates(funcNames) {
		err = multierr.Append(err, errors.Errorf("function %q declared more than once", dup))
	}
	for _, f := range s.Functions {
		for _, g := range f.Groups {
			if !lo.Contains(groupNames, g) {
				err = multierr.Append(err, errors.Errorf("function %q references unknown group %q", f.Name, g))
			}
		}
	}

	return errors.Wrapf(err, "invalid soc %q", s.Name)
}

func (c Community) validate(idx int) error {
	if c.NPins == 0 {
		return errors.Errorf("community %d has no pins", idx)
	}
	if len(c.PadGroups) == 0 && (c.GPPSize == 0 || c.GPPSize > MaxPadGroupSize) {
		return errors.Errorf("community %d needs pad groups or a pad group size in [1,%d], got %d",
			idx, MaxPadGroupSize, c.GPPSize)
	}

	var err error
	next := c.PinBase
	for _, g := range c.ResolvePadGroups() {
		if g.Size == 0 || g.Size > MaxPadGroupSize {
			err = multierr.Append(err, errors.Errorf("community %d: %s has invalid size %d", idx, g, g.Size))
		}
		if g.Base != next {
			err = multierr.Append(err, errors.Errorf("community %d: %s should start at pin %d", idx, g, next))
		}
		if g.GPIOBase < NoGPIO {
			err = multierr.Append(err, errors.Errorf("community %d: %s has invalid gpio base %d", idx, g, g.GPIOBase))
		}
		next = g.Base + g.Size
	}
	if next != c.PinBase+c.NPins {
		err = multierr.Append(err, errors.Errorf("community %d: pad groups end at pin %d, community ends at %d",
			idx, next, c.PinBase+c.NPins))
	}
	return err
}

// validateGPIORanges rejects pad groups whose GPIO numbers collide, across all communities.
func (s *SoC) validateGPIORanges() error {
	type gpioRange struct {
		comm int
		g    PadGroup
	}
	var (
		err    error
		ranges []gpioRange
	)
	for i, c := range s.Communities {
		for _, g := range c.ResolvePadGroups() {
			if g.GPIOBase < 0 || g.Size == 0 {
				continue
			}
			for _, o := range ranges {
				if g.GPIOBase < o.g.GPIOBase+int(o.g.Size) && o.g.GPIOBase < g.GPIOBase+int(g.Size) {
					err = multierr.Append(err, errors.Errorf("gpio numbers of community %d %s and community %d %s overlap",
						o.comm, o.g, i, g))
				}
			}
			ranges = append(ranges, gpioRange{comm: i, g: g})
		}
	}
	return err
}

func (s *SoC) validateGroup(g Group, pins []uint) error {
	var err error
	for _, p := range g.Pins {
		if !lo.Contains(pins, p) {
			err = multierr.Append(err, errors.Errorf("group %q references undeclared pin %d", g.Name, p))
		}
	}
	switch m := g.Mode.(type) {
	case nil:
		err = multierr.Append(err, errors.Errorf("group %q has no mode", g.Name))
	case PerPinModes:
		if len(m) != len(g.Pins) {
			err = multierr.Append(err, errors.Errorf("group %q has %d pins but %d modes", g.Name, len(g.Pins), len(m)))
		}
	}
	return err
}
