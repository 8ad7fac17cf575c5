package status

import "sync"

// truncationMarker is surfaced as the first log entry once older
// transcript lines have been evicted.
const truncationMarker = "[...]"

// DefaultLogCapacity bounds the transcript buffer.
const DefaultLogCapacity = 16 * 1024

// Store is the single result store for the gateway. It holds the
// current status label, transfer totals and a byte-bounded transcript
// of modem traffic. All methods are safe for concurrent use; readers
// get independent snapshots.
type Store struct {
	mu        sync.Mutex
	status    string
	sent      int64
	received  int64
	log       []string
	logBytes  int
	capacity  int
	truncated bool
	metrics   *Metrics
}

// NewStore returns a store whose transcript holds at most logCapacity
// bytes. metrics may be nil.
func NewStore(logCapacity int, metrics *Metrics) *Store {
	if logCapacity <= 0 {
		logCapacity = DefaultLogCapacity
	}
	return &Store{
		status:   "idle",
		capacity: logCapacity,
		metrics:  metrics,
	}
}

// SetStatus replaces the status label. Empty labels are ignored so the
// store always reports something meaningful.
func (s *Store) SetStatus(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
}

// AppendLog adds one transcript line, evicting the oldest lines when
// the byte cap is exceeded. A line larger than the whole cap keeps only
// its tail.
func (s *Store) AppendLog(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, line)
	s.logBytes += len(line)

	for s.logBytes > s.capacity && len(s.log) > 1 {
		s.logBytes -= len(s.log[0])
		s.log = s.log[1:]
		s.truncated = true
		if s.metrics != nil {
			s.metrics.LogEvictions.Inc()
		}
	}
	if s.logBytes > s.capacity {
		last := s.log[0]
		s.log[0] = last[len(last)-s.capacity:]
		s.logBytes = s.capacity
		s.truncated = true
		if s.metrics != nil {
			s.metrics.LogEvictions.Inc()
		}
	}
}

// AddSent records bytes written to the modem.
func (s *Store) AddSent(n int) {
	s.mu.Lock()
	s.sent += int64(n)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SerialBytes.WithLabelValues("sent").Add(float64(n))
	}
}

// AddReceived records bytes read from the modem.
func (s *Store) AddReceived(n int) {
	s.mu.Lock()
	s.received += int64(n)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SerialBytes.WithLabelValues("received").Add(float64(n))
	}
}

// Snapshot is a point-in-time copy of the store for reporting.
type Snapshot struct {
	Status        string   `json:"status"`
	BytesSent     int64    `json:"bytes_sent"`
	BytesReceived int64    `json:"bytes_received"`
	Log           []string `json:"log"`
}

// Snapshot returns an independent copy of the current state. Later
// store updates do not leak into it. When transcript lines have been
// evicted the log opens with a truncation marker.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := make([]string, 0, len(s.log)+1)
	if s.truncated {
		log = append(log, truncationMarker)
	}
	log = append(log, s.log...)

	return Snapshot{
		Status:        s.status,
		BytesSent:     s.sent,
		BytesReceived: s.received,
		Log:           log,
	}
}
