// Package session keeps per-browser exploration state between requests.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron"

	"github.com/KaramelBytes/tabula/internal/frame"
	"github.com/KaramelBytes/tabula/internal/logging"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session not found")
	// ErrStale is returned by Advance when the working dataset changed since it was read.
	ErrStale = errors.New("session dataset changed")
)

// Session is a value: handlers read one, derive a new one and Put it back.
// Original is the uploaded dataset, Current the working snapshot.
type Session struct {
	ID       string
	FileName string
	Original *frame.Dataset
	Current  *frame.Dataset
	Created  time.Time
	LastSeen time.Time
}

// HasData reports whether a dataset was uploaded.
func (s Session) HasData() bool { return s.Current != nil }

// WithDataset starts over from a freshly uploaded dataset.
func (s Session) WithDataset(ds *frame.Dataset) Session {
	s.FileName = ds.Name()
	s.Original = ds
	s.Current = ds
	return s
}

// WithCurrent replaces the working snapshot.
func (s Session) WithCurrent(ds *frame.Dataset) Session {
	s.Current = ds
	return s
}

// Reset restores the uploaded dataset.
func (s Session) Reset() Session {
	s.Current = s.Original
	return s
}

// Modified reports whether the working snapshot differs from the upload.
func (s Session) Modified() bool { return s.Current != s.Original }

// Store holds sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	log      *logging.Logger
	cron     *cron.Cron
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log.With("Session"),
	}
}

// Create registers a new empty session.
func (st *Store) Create() Session {
	now := st.now()
	s := Session{ID: uuid.NewString(), Created: now, LastSeen: now}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	st.log.Debug("created %s", s.ID)
	return s
}

// Get returns the session and refreshes its last access time.
func (st *Store) Get(id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Session{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		delete(st.sessions, id)
		return Session{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.LastSeen = st.now()
	st.sessions[id] = s
	return s, nil
}

// Put stores s, replacing the value under its id.
func (st *Store) Put(s Session) error {
	if s.ID == "" {
		return errors.New("session has no id")
	}
	s.LastSeen = st.now()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return nil
}

// Advance replaces the working dataset of session id with next, but only while
// it is still from. Otherwise it returns the stored session and ErrStale.
func (st *Store) Advance(id string, from, next *frame.Dataset) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if s.Current != from {
		return s, ErrStale
	}
	s = s.WithCurrent(next)
	s.LastSeen = st.now()
	st.sessions[id] = s
	return s, nil
}

// Delete forgets a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len is the number of stored sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) expired(s Session) bool {
	return st.ttl > 0 && st.now().Sub(s.LastSeen) > st.ttl
}

// Sweep drops expired sessions and returns how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		st.log.Info("swept %d expired sessions, %d active", n, len(st.sessions))
	}
	return n
}

// StartSweeper runs Sweep on the cron schedule spec (for example "@every 1m").
func (st *Store) StartSweeper(spec string) error {
	c := cron.New()
	if err := c.AddFunc(spec, func() { st.Sweep() }); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	c.Start()
	st.mu.Lock()
	st.cron = c
	st.mu.Unlock()
	st.log.Info("sweeping idle sessions %s (ttl %s)", spec, st.ttl)
	return nil
}

// Stop halts the sweeper, if running.
func (st *Store) Stop() {
	st.mu.Lock()
	c := st.cron
	st.cron = nil
	st.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}
