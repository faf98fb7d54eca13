package topology

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// String renders the communities and their pad groups as a table.
func (s *SoC) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s: %d pins, %d groups, %d functions", s.Name, len(s.Pins), len(s.Groups), len(s.Functions)))
	t.AppendHeader(table.Row{"Community", "BAR", "Pins", "Pad group", "GPIO base", "PAD_OWN reg", "Features"})
	for i, c := range s.Communities {
		for j, g := range c.ResolvePadGroups() {
			row := table.Row{"", "", "", g.String(), gpioBaseString(g.GPIOBase), g.PadOwnNum, ""}
			if j == 0 {
				row[0] = i
				row[1] = c.Bar
				row[2] = fmt.Sprintf("[%d,%d)", c.PinBase, c.PinBase+c.NPins)
				row[6] = c.Features.String()
			}
			t.AppendRow(row)
		}
	}
	return t.Render()
}

func gpioBaseString(base int) string {
	if base == NoGPIO {
		return "none"
	}
	return fmt.Sprint(base)
}

func (f Feature) String() string {
	switch {
	case f == 0:
		return "-"
	case f.Has(FeatureDebounce | Feature1KPullDown):
		return "debounce,1k-pd"
	case f.Has(FeatureDebounce):
		return "debounce"
	case f.Has(Feature1KPullDown):
		return "1k-pd"
	}
	return fmt.Sprintf("%#x", uint(f))
}
