package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leminkozey/whoami/internal/core/domain"
)

func TestGuestbookService_Submit(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)

	t.Run("stores sanitized entry and returns public shape", func(t *testing.T) {
		store := newFakeGuestbookStore(domain.MaxEntries)
		service := newTestGuestbook(t, store, fixed)

		entry, err := service.Submit(context.Background(), "  <b>neo</b> ", " hello & 'bye' ", "hash-1")
		require.NoError(t, err)

		assert.Equal(t, domain.PublicEntry{
			Name:    "&lt;b&gt;neo&lt;/b&gt;",
			Message: "hello &amp; &#39;bye&#39;",
			Date:    "2026-10-19",
		}, entry)
		require.Len(t, store.entries, 1)
		assert.Equal(t, "hash-1", store.entries[0].IdentityHash)
	})

	t.Run("empty name defaults to Anonymous", func(t *testing.T) {
		service := newTestGuestbook(t, newFakeGuestbookStore(domain.MaxEntries), fixed)

		entry, err := service.Submit(context.Background(), "   ", "hi", "hash-1")
		require.NoError(t, err)
		assert.Equal(t, domain.AnonymousName, entry.Name)
	})

	t.Run("long name is truncated to 20 characters", func(t *testing.T) {
		service := newTestGuestbook(t, newFakeGuestbookStore(domain.MaxEntries), fixed)

		entry, err := service.Submit(context.Background(), strings.Repeat("ü", 30), "hi", "hash-1")
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("ü", 20), entry.Name)
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		service := newTestGuestbook(t, newFakeGuestbookStore(domain.MaxEntries), fixed)

		_, err := service.Submit(context.Background(), "neo", " \t\n ", "hash-1")
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("exactly 100 raw characters is accepted even if escaping grows it", func(t *testing.T) {
		store := newFakeGuestbookStore(domain.MaxEntries)
		service := newTestGuestbook(t, store, fixed)

		entry, err := service.Submit(context.Background(), "", strings.Repeat("<", 100), "hash-1")
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("&lt;", 100), entry.Message)
	})

	t.Run("101 raw characters is rejected", func(t *testing.T) {
		store := newFakeGuestbookStore(domain.MaxEntries)
		service := newTestGuestbook(t, store, fixed)

		_, err := service.Submit(context.Background(), "", strings.Repeat("a", 101), "hash-1")
		assert.ErrorIs(t, err, domain.ErrMessageTooLong)
		assert.Empty(t, store.entries)
	})

	t.Run("length counts characters, not bytes", func(t *testing.T) {
		service := newTestGuestbook(t, newFakeGuestbookStore(domain.MaxEntries), fixed)

		_, err := service.Submit(context.Background(), "", strings.Repeat("é", 100), "hash-1")
		assert.NoError(t, err)
	})

	t.Run("second submission from same identity conflicts", func(t *testing.T) {
		store := newFakeGuestbookStore(domain.MaxEntries)
		service := newTestGuestbook(t, store, fixed)

		_, err := service.Submit(context.Background(), "neo", "first", "hash-1")
		require.NoError(t, err)

		_, err = service.Submit(context.Background(), "neo", "second", "hash-1")
		assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
		assert.True(t, domain.IsConflictError(err))
		assert.Len(t, store.entries, 1)
	})

	t.Run("full guestbook conflicts", func(t *testing.T) {
		store := newFakeGuestbookStore(1)
		service := newTestGuestbook(t, store, fixed)

		_, err := service.Submit(context.Background(), "", "first", "hash-1")
		require.NoError(t, err)

		_, err = service.Submit(context.Background(), "", "second", "hash-2")
		assert.ErrorIs(t, err, domain.ErrGuestbookFull)
	})

	t.Run("missing identity is an internal error", func(t *testing.T) {
		service := newTestGuestbook(t, newFakeGuestbookStore(domain.MaxEntries), fixed)

		_, err := service.Submit(context.Background(), "", "hi", "")
		require.Error(t, err)
		assert.False(t, domain.IsValidationError(err))
		assert.False(t, domain.IsConflictError(err))
	})
}

func TestGuestbookService_ListUsesPublicLimit(t *testing.T) {
	store := newFakeGuestbookStore(domain.MaxEntries)
	service := newTestGuestbook(t, store, time.Now())

	service.List(context.Background())
	assert.Equal(t, domain.PublicListLimit, store.lastLimit)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#39;", Sanitize(`&<>"'`))
	assert.Equal(t, "plain", Sanitize("plain"))
}

func newTestGuestbook(t *testing.T, store *fakeGuestbookStore, now time.Time) *GuestbookService {
	t.Helper()
	service, err := NewGuestbookService(store, zerolog.Nop(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return service
}

type fakeGuestbookStore struct {
	mu         sync.Mutex
	entries    []domain.GuestbookEntry
	maxEntries int
	lastLimit  int
}

func newFakeGuestbookStore(maxEntries int) *fakeGuestbookStore {
	return &fakeGuestbookStore{maxEntries: maxEntries}
}

func (f *fakeGuestbookStore) Recent(limit int) []domain.PublicEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	return nil
}

func (f *fakeGuestbookStore) Append(entry domain.GuestbookEntry) (<-chan error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.IdentityHash == entry.IdentityHash {
			return nil, domain.ErrDuplicateEntry
		}
	}
	if len(f.entries) >= f.maxEntries {
		return nil, domain.ErrGuestbookFull
	}
	f.entries = append(f.entries, entry)
	return done(nil), nil
}

func (f *fakeGuestbookStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func done(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}
