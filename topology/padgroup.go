package topology

// padOwnBits is the width of one pad's PAD_OWN field.
const padOwnBits = 4

// ResolvePadGroups returns the community's pad groups with GPIO bases and PAD_OWN register
// numbers filled in. When the community declares no explicit groups they are synthesized from
// GPPSize: consecutive groups of GPPSize pads, the last one possibly shorter, RegNum equal to
// the ordinal.
func (c Community) ResolvePadGroups() []PadGroup {
	var groups []PadGroup
	switch {
	case len(c.PadGroups) > 0:
		groups = make([]PadGroup, len(c.PadGroups))
		copy(groups, c.PadGroups)
	case c.GPPSize > 0:
		remaining := c.NPins
		for i := uint(0); remaining > 0; i++ {
			size := min(c.GPPSize, remaining)
			groups = append(groups, PadGroup{
				RegNum:   i,
				Base:     c.PinBase + i*c.GPPSize,
				Size:     size,
				GPIOBase: GPIOBaseDefault,
			})
			remaining -= size
		}
	default:
		return nil
	}

	var padOwn uint
	for i := range groups {
		if groups[i].GPIOBase == GPIOBaseDefault {
			groups[i].GPIOBase = int(groups[i].Base)
		}
		groups[i].PadOwnNum = padOwn
		if c.GPPNumPadOwnRegs > 0 {
			padOwn += c.GPPNumPadOwnRegs
		} else {
			padOwn += (groups[i].Size*padOwnBits + 31) / 32
		}
	}
	return groups
}
