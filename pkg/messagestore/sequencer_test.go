package messagestore

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestSequencer_ClockStepsBack(t *testing.T) {
	req := require.New(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{
		base,
		base,
		base.Add(-time.Second),
		base.Add(500 * time.Microsecond),
		base.Add(time.Minute),
	}
	i := 0
	seq := newSequencer(func() time.Time {
		now := clock[i]
		i++
		return now
	})

	var lastID string
	var lastTS time.Time
	for range clock {
		id, ts := seq.Next()
		req.True(ts.After(lastTS), "timestamp must increase")
		req.Greater(id, lastID)
		req.Equal(ts, ts.Truncate(time.Millisecond))

		parsed, err := ulid.ParseStrict(id)
		req.NoError(err)
		req.Equal(ts.UnixMilli(), int64(parsed.Time()))

		lastID, lastTS = id, ts
	}
	req.Equal(base.Add(time.Minute), lastTS)
}

func TestSequencer_Concurrent(t *testing.T) {
	req := require.New(t)
	seq := NewSequencer()

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := seq.Next()
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		seen[id] = struct{}{}
	}
	req.Len(seen, n)
}

func TestSequencer_UTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	seq := newSequencer(func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, loc) })

	_, ts := seq.Next()
	require.Equal(t, time.UTC, ts.Location())
	require.Equal(t, 7, ts.Hour())
}
