package janitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/socialpulse/backend/internal/logging"
	"github.com/socialpulse/backend/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purgingBackend struct {
	purged int
	err    error
}

func (p *purgingBackend) Ping(ctx context.Context) error { return nil }
func (p *purgingBackend) SetRevoked(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}
func (p *purgingBackend) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (p *purgingBackend) Close() error                                         { return nil }

func (p *purgingBackend) PurgeExpired(ctx context.Context) (int64, error) {
	p.purged++
	return 3, p.err
}

func TestRunPurgesMemory(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	bl := security.NewBlacklist(security.BlacklistOptions{
		Logger: logging.Discard(),
		Now:    func() time.Time { return past },
	})

	bl.Revoke(ctx, "gone", past.Add(time.Minute))
	bl.Revoke(ctx, "kept", time.Now().Add(time.Hour))
	require.Equal(t, 2, bl.Len())

	New(bl, 0, logging.Discard()).Run()

	assert.Equal(t, 1, bl.Len())
	assert.True(t, bl.IsRevoked(ctx, "kept"))
}

func TestRunPurgesDurableBackend(t *testing.T) {
	backend := &purgingBackend{}
	bl := security.NewBlacklist(security.BlacklistOptions{
		Logger: logging.Discard(),
		Dial:   func(ctx context.Context) (security.RevocationBackend, error) { return backend, nil },
	})

	j := New(bl, time.Second, logging.Discard())
	j.Run()
	assert.Equal(t, 1, backend.purged)

	backend.err = errors.New("db down")
	assert.NotPanics(t, j.Run)
	assert.Equal(t, 2, backend.purged)
}

func TestStartRejectsBadSpec(t *testing.T) {
	bl := security.NewBlacklist(security.BlacklistOptions{Logger: logging.Discard()})
	j := New(bl, 0, logging.Discard())

	assert.Error(t, j.Start("every now and then"))
}

func TestStartAndStop(t *testing.T) {
	bl := security.NewBlacklist(security.BlacklistOptions{Logger: logging.Discard()})
	j := New(bl, 0, logging.Discard())

	require.NoError(t, j.Start("@every 1h"))
	j.Stop()
}
