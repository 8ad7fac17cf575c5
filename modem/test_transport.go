package modem

import (
	"sync"
	"time"
)

// ScriptTransport is a test helper that plays back a scripted sequence
// of modem output. Each queued chunk is handed to exactly one ReadChunk
// call; once the script runs dry, ReadChunk behaves like a quiet serial
// line and sleeps out its timeout.
type ScriptTransport struct {
	mu      sync.Mutex
	entries []scriptEntry
	writes  []string
	closed  bool
}

type scriptEntry struct {
	data []byte
	err  error
}

// NewScriptTransport creates a new scripted transport.
// Exported for use in tests.
func NewScriptTransport() *ScriptTransport {
	return &ScriptTransport{}
}

// Queue appends one chunk of modem output to the script.
func (t *ScriptTransport) Queue(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, scriptEntry{data: []byte(data)})
}

// QueueError appends a transport fault to the script.
func (t *ScriptTransport) QueueError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, scriptEntry{err: err})
}

func (t *ScriptTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, string(p))
	return len(p), nil
}

func (t *ScriptTransport) ReadChunk(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	if len(t.entries) > 0 {
		entry := t.entries[0]
		t.entries = t.entries[1:]
		t.mu.Unlock()
		return entry.data, entry.err
	}
	t.mu.Unlock()

	time.Sleep(timeout)
	return nil, nil
}

func (t *ScriptTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrAlreadyClosed
	}
	t.closed = true
	return nil
}

// Writes returns everything written so far, one string per Write call.
func (t *ScriptTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.writes))
	copy(out, t.writes)
	return out
}
