package grass

import "errors"

var (
	// ErrNilDevice is returned when a System is built without a device.
	ErrNilDevice = errors.New("grass: nil device")
	// ErrInvalidOptions wraps every Options validation failure.
	ErrInvalidOptions = errors.New("grass: invalid options")
)
