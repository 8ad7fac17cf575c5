package modem

import "errors"

var (
	// ErrNoDialer is returned when an engine Config is built without a
	// Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order
	// to establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrTargetRequired is returned when an engine Config is built without
	// a fetch target host.
	ErrTargetRequired = errors.New("fetch target host required")

	// ErrPortNameRequired is returned by SerialDialer when no serial port
	// name was provided.
	ErrPortNameRequired = errors.New("modem: serial port name is required")

	// ErrNilContext is returned by SerialDialer when Dial is called with a
	// nil context.
	ErrNilContext = errors.New("modem: context is nil")

	// ErrAlreadyClosed is returned when Close is called on a transport
	// that has already been closed.
	ErrAlreadyClosed = errors.New("modem: transport already closed")
)
