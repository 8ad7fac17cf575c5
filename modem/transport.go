package modem

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the UART rate the modem module ships with.
const DefaultBaudRate = 921600

// Transport represents an established, half-duplex byte stream to a
// cellular modem.
//
// A Transport is assumed to be already connected and ready for use. It
// provides the low-level I/O primitives required to send AT commands and
// receive responses. Typical implementations include serial ports, TCP
// connections to emulators, or in-memory fakes used for testing.
type Transport interface {
	// Write sends raw bytes to the modem. All bytes are written before
	// Write returns without error.
	Write(p []byte) (n int, err error)

	// ReadChunk returns whatever bytes arrive within timeout. An empty
	// chunk with a nil error means the line stayed quiet; an error means
	// the link itself failed.
	ReadChunk(timeout time.Duration) ([]byte, error)

	// Close releases the underlying stream.
	Close() error
}

// Dialer opens a Transport to a cellular modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double) and is intended to be used
// during engine construction only. Once a Transport is obtained, the Dialer is
// no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens a cellular modem over a local serial port using
// go.bug.st/serial.
type SerialDialer struct {
	// PortName is the path of the serial device (e.g. "/dev/ttyUSB0").
	PortName string
	// Mode overrides the serial parameters. When nil the port is opened
	// at DefaultBaudRate, 8N1.
	Mode *serial.Mode
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, ErrPortNameRequired
	}
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = &serial.Mode{
			BaudRate: DefaultBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return &serialTransport{port: port}, nil
}

// serialTransport adapts a serial.Port to the Transport contract. The
// read timeout is applied per ReadChunk call via SetReadTimeout, under
// which a quiet line yields a zero-length read with no error.
type serialTransport struct {
	port   serial.Port
	closed bool
}

func (t *serialTransport) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := t.port.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

func (t *serialTransport) ReadChunk(timeout time.Duration) ([]byte, error) {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	buf := make([]byte, 512)
	n, err := t.port.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (t *serialTransport) Close() error {
	if t.closed {
		return ErrAlreadyClosed
	}
	t.closed = true
	return t.port.Close()
}

// ByteCounter receives transfer totals from a counting transport,
// typically the result store feeding its tx/rx counters.
type ByteCounter interface {
	AddSent(n int)
	AddReceived(n int)
}

// NewCountingTransport decorates t so every successful transfer updates
// counter. Byte totals reflect what actually moved, including partial
// writes that ended in an error.
func NewCountingTransport(t Transport, counter ByteCounter) Transport {
	return &countingTransport{inner: t, counter: counter}
}

type countingTransport struct {
	inner   Transport
	counter ByteCounter
}

func (t *countingTransport) Write(p []byte) (int, error) {
	n, err := t.inner.Write(p)
	if n > 0 {
		t.counter.AddSent(n)
	}
	return n, err
}

func (t *countingTransport) ReadChunk(timeout time.Duration) ([]byte, error) {
	chunk, err := t.inner.ReadChunk(timeout)
	if len(chunk) > 0 {
		t.counter.AddReceived(len(chunk))
	}
	return chunk, err
}

func (t *countingTransport) Close() error {
	return t.inner.Close()
}
