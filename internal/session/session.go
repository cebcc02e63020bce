// Package session holds uploaded datasets between HTTP requests.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/auditai-dev/auditai/internal/model"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Session is one uploaded dataset and the rule set it is checked against.
// RulesErr records why the rules could not be loaded; compliance checks
// report it instead of running.
type Session struct {
	ID        string
	Source    string
	Dataset   *model.Dataset
	Rules     []model.Rule
	RulesErr  error
	CreatedAt time.Time
}

// New creates a session with a fresh ID.
func New(source string, ds *model.Dataset, rules []model.Rule, rulesErr error) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Source:    source,
		Dataset:   ds,
		Rules:     rules,
		RulesErr:  rulesErr,
		CreatedAt: time.Now(),
	}
}

// Store keeps sessions in memory and expires them after ttl of inactivity.
// It is safe for concurrent use.
type Store struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewStore returns a store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{c: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Put stores s, replacing any session with the same ID.
func (st *Store) Put(s *Session) {
	st.c.Set(s.ID, s, cache.DefaultExpiration)
}

// Get returns the session and extends its lifetime.
func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	st.c.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Delete removes a session. Deleting an unknown ID returns ErrNotFound.
func (st *Store) Delete(id string) error {
	if _, ok := st.c.Get(id); !ok {
		return ErrNotFound
	}
	st.c.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.c.ItemCount()
}
