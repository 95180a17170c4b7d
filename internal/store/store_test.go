package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *TempStore {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s := New(log, opts...)
	t.Cleanup(s.Close)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	payload := []byte("PK\x03\x04 fake docx bytes")
	id := s.Put("a.docx", payload)
	require.NotEmpty(t, id)

	doc, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "a.docx", doc.Filename)
	assert.Equal(t, payload, doc.Payload)
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayloadIsImmutable(t *testing.T) {
	s := newTestStore(t)

	payload := []byte("original")
	id := s.Put("a.docx", payload)
	payload[0] = 'X'

	doc, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), doc.Payload)

	// Mutating a returned payload must not reach the stored bytes.
	doc.Payload[0] = 'Y'
	again, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again.Payload)
}

func TestDistinctIDs(t *testing.T) {
	s := newTestStore(t)

	a := s.Put("a.docx", []byte("a"))
	b := s.Put("b.docx", []byte("b"))
	assert.NotEqual(t, a, b)
}

func TestTTLExpiry(t *testing.T) {
	s := newTestStore(t, WithTTL(10*time.Millisecond))

	id := s.Put("a.docx", []byte("short lived"))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCapacityEviction(t *testing.T) {
	s := newTestStore(t, WithMaxEntries(2))

	first := s.Put("first.docx", []byte("1"))
	time.Sleep(2 * time.Millisecond)
	s.Put("second.docx", []byte("2"))
	time.Sleep(2 * time.Millisecond)
	s.Put("third.docx", []byte("3"))

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(first)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentPutGet(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("doc-%d.docx", i)
			id := s.Put(name, []byte(name))
			ids[i] = id

			doc, err := s.Get(id)
			assert.NoError(t, err)
			assert.Equal(t, name, doc.Filename)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "identifier collision: %s", id)
		seen[id] = true
	}
}
