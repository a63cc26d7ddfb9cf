package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/socialpulse/backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	keys     map[string]time.Duration
	pingErr  error
	setErr   error
	existErr error
	closed   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{keys: map[string]time.Duration{}}
}

func (f *fakeBackend) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeBackend) SetRevoked(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.keys[key] = ttl
	return nil
}

func (f *fakeBackend) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existErr != nil {
		return false, f.existErr
	}
	_, ok := f.keys[key]
	return ok, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func (f *fakeBackend) ttl(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key]
}

func memoryBlacklist(maxEntries int) *Blacklist {
	return NewBlacklist(BlacklistOptions{MaxEntries: maxEntries, Logger: logging.Discard()})
}

func TestBlacklistMemoryRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bl := memoryBlacklist(0)

	assert.Equal(t, ModeUnresolved, bl.Mode())
	assert.False(t, bl.IsRevoked(ctx, "jti-1"))
	assert.Equal(t, ModeMemory, bl.Mode())

	bl.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
	assert.True(t, bl.IsRevoked(ctx, "jti-1"))
	assert.False(t, bl.IsRevoked(ctx, "jti-2"))
	assert.Equal(t, 1, bl.Len())
}

func TestBlacklistIgnoresEmptyID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bl := memoryBlacklist(0)

	bl.Revoke(ctx, "", time.Now().Add(time.Hour))
	assert.Equal(t, 0, bl.Len())
	assert.False(t, bl.IsRevoked(ctx, ""))
}

func TestBlacklistEntryLapsesAtExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now()
	bl := NewBlacklist(BlacklistOptions{Logger: logging.Discard(), Now: func() time.Time { return now }})

	bl.Revoke(ctx, "jti", now.Add(time.Minute))
	assert.True(t, bl.IsRevoked(ctx, "jti"))

	now = now.Add(time.Minute)
	assert.False(t, bl.IsRevoked(ctx, "jti"))
}

func TestBlacklistRevokePurgesExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now()
	bl := NewBlacklist(BlacklistOptions{Logger: logging.Discard(), Now: func() time.Time { return now }})

	bl.Revoke(ctx, "short", now.Add(time.Second))
	bl.Revoke(ctx, "long", now.Add(time.Hour))
	require.Equal(t, 2, bl.Len())

	now = now.Add(2 * time.Second)
	bl.Revoke(ctx, "new", now.Add(time.Hour))

	assert.Equal(t, 2, bl.Len())
	assert.False(t, bl.IsRevoked(ctx, "short"))
	assert.True(t, bl.IsRevoked(ctx, "long"))
	assert.True(t, bl.IsRevoked(ctx, "new"))
}

func TestBlacklistCapacityEvictsOldest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bl := memoryBlacklist(0)

	exp := time.Now().Add(time.Hour)
	for i := 0; i <= DefaultBlacklistMaxEntries; i++ {
		bl.Revoke(ctx, fmt.Sprintf("jti-%d", i), exp)
	}

	assert.Equal(t, DefaultBlacklistMaxEntries, bl.Len())
	assert.False(t, bl.IsRevoked(ctx, "jti-0"))
	assert.True(t, bl.IsRevoked(ctx, "jti-1"))
	assert.True(t, bl.IsRevoked(ctx, fmt.Sprintf("jti-%d", DefaultBlacklistMaxEntries)))
}

func TestBlacklistRerevokeKeepsPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bl := memoryBlacklist(2)

	exp := time.Now().Add(time.Hour)
	bl.Revoke(ctx, "a", exp)
	bl.Revoke(ctx, "b", exp)
	bl.Revoke(ctx, "a", exp.Add(time.Hour))
	bl.Revoke(ctx, "c", exp)

	assert.Equal(t, 2, bl.Len())
	assert.False(t, bl.IsRevoked(ctx, "a"))
	assert.True(t, bl.IsRevoked(ctx, "b"))
	assert.True(t, bl.IsRevoked(ctx, "c"))
}

func TestBlacklistPurge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bl := memoryBlacklist(0)

	now := time.Now()
	bl.Revoke(ctx, "a", now.Add(time.Minute))
	bl.Revoke(ctx, "b", now.Add(time.Hour))

	assert.Equal(t, 1, bl.Purge(now.Add(30*time.Minute)))
	assert.Equal(t, 1, bl.Len())
}

func TestBlacklistDurableBypassesMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newFakeBackend()
	now := time.Now()
	bl := NewBlacklist(BlacklistOptions{
		Logger: logging.Discard(),
		Now:    func() time.Time { return now },
		Dial:   func(ctx context.Context) (RevocationBackend, error) { return backend, nil },
	})

	bl.Revoke(ctx, "jti", now.Add(90*time.Second+500*time.Millisecond))

	assert.Equal(t, ModeDurable, bl.Mode())
	assert.Equal(t, 0, bl.Len())
	assert.Equal(t, 90*time.Second, backend.ttl("bl:jti"))
	assert.True(t, bl.IsRevoked(ctx, "jti"))
	assert.False(t, bl.IsRevoked(ctx, "other"))
}

func TestBlacklistDurableMinimumTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newFakeBackend()
	bl := NewBlacklist(BlacklistOptions{
		Logger: logging.Discard(),
		Dial:   func(ctx context.Context) (RevocationBackend, error) { return backend, nil },
	})

	bl.Revoke(ctx, "past", time.Now().Add(-time.Hour))
	assert.Equal(t, time.Second, backend.ttl("bl:past"))
}

func TestBlacklistDialFailureIsPermanent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var dials atomic.Int32
	bl := NewBlacklist(BlacklistOptions{
		Logger: logging.Discard(),
		Dial: func(ctx context.Context) (RevocationBackend, error) {
			dials.Add(1)
			return nil, errors.New("connection refused")
		},
	})

	exp := time.Now().Add(time.Hour)
	bl.Revoke(ctx, "a", exp)
	bl.Revoke(ctx, "b", exp)
	assert.True(t, bl.IsRevoked(ctx, "a"))

	assert.Equal(t, int32(1), dials.Load())
	assert.Equal(t, ModeMemory, bl.Mode())
	assert.Equal(t, 2, bl.Len())
	assert.Nil(t, bl.Backend(ctx))
}

func TestBlacklistPingFailureClosesBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newFakeBackend()
	backend.pingErr = errors.New("timeout")
	bl := NewBlacklist(BlacklistOptions{
		Logger: logging.Discard(),
		Dial:   func(ctx context.Context) (RevocationBackend, error) { return backend, nil },
	})

	assert.False(t, bl.IsRevoked(ctx, "x"))
	assert.Equal(t, ModeMemory, bl.Mode())
	assert.True(t, backend.closed)
	assert.NoError(t, bl.Close())
}

func TestBlacklistDialHonoursTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bl := NewBlacklist(BlacklistOptions{
		Logger:  logging.Discard(),
		Timeout: 20 * time.Millisecond,
		Dial: func(ctx context.Context) (RevocationBackend, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	start := time.Now()
	bl.Revoke(ctx, "jti", time.Now().Add(time.Hour))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, ModeMemory, bl.Mode())
	assert.True(t, bl.IsRevoked(ctx, "jti"))
}

func TestBlacklistWriteFailureFallsBackToMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newFakeBackend()
	backend.setErr = errors.New("broken pipe")
	bl := NewBlacklist(BlacklistOptions{
		Logger: logging.Discard(),
		Dial:   func(ctx context.Context) (RevocationBackend, error) { return backend, nil },
	})

	bl.Revoke(ctx, "jti", time.Now().Add(time.Hour))

	assert.Equal(t, ModeDurable, bl.Mode())
	assert.Equal(t, 1, bl.Len())
	assert.True(t, bl.IsRevoked(ctx, "jti"))

	backend.existErr = errors.New("broken pipe")
	assert.True(t, bl.IsRevoked(ctx, "jti"))
}

func TestBlacklistCloseClosesDurableBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newFakeBackend()
	bl := NewBlacklist(BlacklistOptions{
		Logger: logging.Discard(),
		Dial:   func(ctx context.Context) (RevocationBackend, error) { return backend, nil },
	})
	bl.IsRevoked(ctx, "x")

	require.NoError(t, bl.Close())
	assert.True(t, backend.closed)
}

func TestBlacklistConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bl := memoryBlacklist(500)

	var wg sync.WaitGroup
	exp := time.Now().Add(time.Hour)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				bl.Revoke(ctx, id, exp)
				bl.IsRevoked(ctx, id)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 500, bl.Len())
}
