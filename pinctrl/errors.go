package pinctrl

import "github.com/pkg/errors"

// Errors returned by Controller operations. They are wrapped with context; match them with
// errors.Is.
var (
	// ErrOutOfRange means the pin or GPIO number is not served by any community.
	ErrOutOfRange = errors.New("pin out of range")
	// ErrNotSupported means the operation has no meaning for this pin or hardware.
	ErrNotSupported = errors.New("not supported")
	// ErrLocked means the pad configuration lock prevents the write.
	ErrLocked = errors.New("pad configuration locked")
	// ErrFirmwareOwned means the pad belongs to firmware rather than the host.
	ErrFirmwareOwned = errors.New("pad owned by firmware")
	// ErrAlreadyRegistered means an interrupt handler is already bound to the pin.
	ErrAlreadyRegistered = errors.New("interrupt already registered")
	// ErrNotRegistered means no interrupt handler is bound to the pin.
	ErrNotRegistered = errors.New("interrupt not registered")
)
