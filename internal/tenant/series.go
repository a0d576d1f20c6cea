package tenant

import "sync"

// Reading is one sensor sample.
type Reading struct {
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
}

// Series is a bounded, arrival-ordered history for one sensor.
// When full, the oldest reading is evicted to admit a new one.
type Series struct {
	mu    sync.RWMutex
	name  string
	unit  string
	buf   []Reading
	start int
	size  int
}

func newSeries(name, unit string, capacity int) *Series {
	return &Series{
		name: name,
		unit: unit,
		buf:  make([]Reading, capacity),
	}
}

// Append adds r, evicting the oldest reading when at capacity.
func (s *Series) Append(r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.buf)
	if s.size < capacity {
		s.buf[(s.start+s.size)%capacity] = r
		s.size++
		return
	}
	s.buf[s.start] = r
	s.start = (s.start + 1) % capacity
}

// Snapshot returns the stored readings, oldest first.
func (s *Series) Snapshot() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reading, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// Latest returns the newest reading, if any.
func (s *Series) Latest() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.size == 0 {
		return Reading{}, false
	}
	return s.buf[(s.start+s.size-1)%len(s.buf)], true
}

// Len returns the number of stored readings.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
