package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrDraftNotFound = errors.New("draft not found")

// Store owns the open drafts, keyed by draft ID. Drafts live only in memory:
// an unsubmitted draft dies with the process, matching discard-on-exit
// semantics. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
	now    func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		drafts: make(map[uuid.UUID]Draft),
		now:    now,
	}
}

// Create opens a new empty draft and returns it.
func (s *Store) Create() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := NewDraft(s.now())
	s.drafts[d.ID] = d
	return d
}

// Get returns a snapshot of the draft.
func (s *Store) Get(id uuid.UUID) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return d, nil
}

// Apply runs one action through the reducer and stores the result. On a
// reducer error the stored draft is unchanged.
func (s *Store) Apply(id uuid.UUID, action Action) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}

	next, err := Reduce(d, action)
	if err != nil {
		return d, err
	}
	next.UpdatedAt = s.now()
	s.drafts[id] = next
	return next, nil
}

// Discard removes the draft unconditionally. The confirmation question is the
// caller's job (see Draft.NeedsDiscardConfirmation).
func (s *Store) Discard(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(s.drafts, id)
	return nil
}

// Remove drops a draft after a successful submit.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}
