package messagestore

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sequencer assigns server timestamps and message IDs. Timestamps have
// millisecond precision (what Cassandra and MongoDB keep) and strictly
// increase per store even if the wall clock stalls or steps back. The ULID is
// derived from the same instant, so sorting by ID equals sorting by timestamp
// equals assignment order.
type Sequencer struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
	last    time.Time
}

// NewSequencer creates a sequencer reading the wall clock.
func NewSequencer() *Sequencer {
	return newSequencer(time.Now)
}

func newSequencer(now func() time.Time) *Sequencer {
	return &Sequencer{
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Next returns the next (id, timestamp) pair.
func (s *Sequencer) Next() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Truncate(time.Millisecond)
	if !ts.After(s.last) {
		ts = s.last.Add(time.Millisecond)
	}
	s.last = ts

	id := ulid.MustNew(ulid.Timestamp(ts), s.entropy)
	return id.String(), ts
}
