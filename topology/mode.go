package topology

import (
	"github.com/pkg/errors"
)

// Mode is the pad mode a Group puts its pins in. It is either UniformMode or PerPinModes.
type Mode interface {
	// ForPin returns the mode of the idx'th pin of the group.
	ForPin(idx int) (uint, error)
	isMode()
}

// UniformMode puts every pin of a group in the same mode.
type UniformMode uint

// ForPin implements Mode.
func (m UniformMode) ForPin(idx int) (uint, error) {
	if idx < 0 {
		return 0, errors.Errorf("negative pin index %d", idx)
	}
	return uint(m), nil
}

func (UniformMode) isMode() {}

// PerPinModes gives each pin of a group its own mode, in group order.
type PerPinModes []uint

// ForPin implements Mode.
func (m PerPinModes) ForPin(idx int) (uint, error) {
	if idx < 0 || idx >= len(m) {
		return 0, errors.Errorf("no mode for pin index %d (have %d)", idx, len(m))
	}
	return m[idx], nil
}

func (PerPinModes) isMode() {}
