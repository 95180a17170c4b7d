// Package store holds document payloads in memory, addressable by opaque
// identifier, for the lifetime of an editing session. Entries are immutable
// once written and expire after a TTL; the store is also capped so a busy
// process cannot grow without bound.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wordapi/internal/model"
)

// ErrNotFound is returned by Get when the identifier is absent, expired, or
// was never issued.
var ErrNotFound = errors.New("document not found in store")

const (
	// DefaultTTL covers an interactive editing session.
	DefaultTTL = time.Hour
	// DefaultMaxEntries bounds worst-case memory at roughly
	// MaxEntries × payload size.
	DefaultMaxEntries = 1024

	sweepInterval = time.Minute
)

type entry struct {
	doc       model.StoredDocument
	expiresAt time.Time
}

// TempStore is a bounded in-memory document store. It is safe for concurrent
// use; inserts are atomic with respect to readers.
type TempStore struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl        time.Duration
	maxEntries int

	log  *logrus.Entry
	done chan struct{}
	once sync.Once
}

// Option configures a TempStore.
type Option func(*TempStore)

// WithTTL overrides the per-entry time to live.
func WithTTL(ttl time.Duration) Option {
	return func(s *TempStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxEntries overrides the entry-count bound.
func WithMaxEntries(n int) Option {
	return func(s *TempStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// New creates a TempStore and starts its expiry janitor. Call Close to stop
// the janitor when the store is torn down.
func New(log *logrus.Logger, opts ...Option) *TempStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &TempStore{
		entries:    make(map[string]entry),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		log:        log.WithField("component", "store"),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor()
	return s
}

// Put stores a payload under a fresh identifier and returns the identifier.
// The payload is copied; later mutation of the caller's slice does not affect
// the stored bytes.
func (s *TempStore) Put(filename string, payload []byte) string {
	id := uuid.NewString()
	owned := make([]byte, len(payload))
	copy(owned, payload)

	now := time.Now()
	e := entry{
		doc: model.StoredDocument{
			ID:        id,
			Filename:  filename,
			Payload:   owned,
			CreatedAt: now,
		},
		expiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	if len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.entries[id] = e
	s.mu.Unlock()

	return id
}

// Get returns the stored document for id, or ErrNotFound. Expired entries are
// treated as absent even before the janitor sweeps them. The returned payload
// is a copy, so callers cannot reach the store's bytes and repeated reads of
// the same identifier stay byte-identical.
func (s *TempStore) Get(id string) (model.StoredDocument, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return model.StoredDocument{}, ErrNotFound
	}
	doc := e.doc
	doc.Payload = append([]byte(nil), e.doc.Payload...)
	return doc, nil
}

// Len returns the current number of live entries.
func (s *TempStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the janitor. The store remains usable afterwards but no longer
// sweeps expired entries in the background.
func (s *TempStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *TempStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.doc.CreatedAt.Before(oldest) {
			oldestID = id
			oldest = e.doc.CreatedAt
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
		s.log.WithField("file_id", oldestID).Warn("store at capacity, evicted oldest entry")
	}
}

func (s *TempStore) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *TempStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.log.WithField("removed", removed).Debug("swept expired entries")
	}
}
