package negotiation

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSource issues strictly increasing ULIDs, even if the wall clock steps
// backwards between calls.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	last    ulid.ULID
	now     func() time.Time
}

func newIDSource(now func() time.Time) *idSource {
	return &idSource{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     now,
	}
}

func (s *idSource) next() (ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := ulid.Timestamp(s.now())
	if prev := s.last.Time(); ms < prev {
		ms = prev
	}

	for {
		id, err := ulid.New(ms, s.entropy)
		if errors.Is(err, ulid.ErrMonotonicOverflow) {
			ms++
			continue
		}
		if err != nil {
			return ulid.ULID{}, err
		}
		s.last = id
		return id, nil
	}
}
