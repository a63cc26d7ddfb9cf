package security

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBlacklistMaxEntries = 10000
	DefaultBackendTimeout      = 500 * time.Millisecond

	blacklistKeyPrefix = "bl:"
)

// RevocationBackend is a durable store for revoked token ids.
// Entries must expire on their own once ttl elapses.
type RevocationBackend interface {
	Ping(ctx context.Context) error
	SetRevoked(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Dialer opens a RevocationBackend. It is called at most once per Blacklist.
type Dialer func(ctx context.Context) (RevocationBackend, error)

type BlacklistMode string

const (
	ModeUnresolved BlacklistMode = "unresolved"
	ModeDurable    BlacklistMode = "durable"
	ModeMemory     BlacklistMode = "memory"
)

type BlacklistOptions struct {
	// MaxEntries bounds the in-memory store; zero means DefaultBlacklistMaxEntries.
	MaxEntries int
	// Timeout bounds every backend call including the initial dial.
	Timeout time.Duration
	// Dial is nil when no durable store is configured.
	Dial   Dialer
	Logger logrus.FieldLogger
	Now    func() time.Time
}

type blacklistEntry struct {
	jti       string
	expiresAt time.Time
}

// Blacklist tracks revoked token ids until their natural expiry.
//
// The durable backend is resolved lazily on first use. A failed dial or
// ping leaves the blacklist in memory mode for the rest of its life; there
// is no reconnect.
type Blacklist struct {
	maxEntries int
	timeout    time.Duration
	dial       Dialer
	log        logrus.FieldLogger
	now        func() time.Time

	once    sync.Once
	mode    atomic.Value
	backend RevocationBackend

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

func NewBlacklist(opts BlacklistOptions) *Blacklist {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultBlacklistMaxEntries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBackendTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Blacklist{
		maxEntries: opts.MaxEntries,
		timeout:    opts.Timeout,
		dial:       opts.Dial,
		log:        opts.Logger.WithField("component", "blacklist"),
		now:        opts.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
	b.mode.Store(ModeUnresolved)
	return b
}

// Mode reports which store the blacklist settled on.
func (b *Blacklist) Mode() BlacklistMode {
	return b.mode.Load().(BlacklistMode)
}

// Revoke records jti as revoked until expiresAt.
func (b *Blacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}

	now := b.now()
	if backend := b.resolve(ctx); backend != nil {
		ttl := expiresAt.Sub(now).Truncate(time.Second)
		if ttl < time.Second {
			ttl = time.Second
		}

		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		err := backend.SetRevoked(callCtx, blacklistKeyPrefix+jti, ttl)
		cancel()
		if err == nil {
			return
		}
		b.log.WithError(err).WithField("jti", jti).Warn("durable revocation write failed, keeping entry in memory")
	}

	b.revokeLocal(jti, expiresAt, now)
}

// IsRevoked reports whether jti is currently revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}

	if backend := b.resolve(ctx); backend != nil {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		found, err := backend.Exists(callCtx, blacklistKeyPrefix+jti)
		cancel()
		if err != nil {
			b.log.WithError(err).WithField("jti", jti).Warn("durable revocation lookup failed, checking memory")
		} else if found {
			return true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.entries[jti]
	if !ok {
		return false
	}
	return b.now().Before(el.Value.(*blacklistEntry).expiresAt)
}

// Purge drops in-memory entries whose expiry is at or before now.
func (b *Blacklist) Purge(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.purgeLocked(now)
}

func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len()
}

// Backend returns the resolved durable backend, or nil in memory mode.
func (b *Blacklist) Backend(ctx context.Context) RevocationBackend {
	return b.resolve(ctx)
}

func (b *Blacklist) Close() error {
	if b.Mode() != ModeDurable {
		return nil
	}
	return b.backend.Close()
}

func (b *Blacklist) resolve(ctx context.Context) RevocationBackend {
	b.once.Do(func() {
		if b.dial == nil {
			b.log.Info("no durable revocation store configured, using in-memory blacklist")
			b.mode.Store(ModeMemory)
			return
		}

		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()

		backend, err := b.dial(dialCtx)
		if err == nil {
			err = backend.Ping(dialCtx)
			if err != nil {
				_ = backend.Close()
			}
		}
		if err != nil {
			b.log.WithError(err).Warn("durable revocation store unreachable, falling back to in-memory blacklist")
			b.mode.Store(ModeMemory)
			return
		}

		b.log.Info("using durable revocation store")
		b.backend = backend
		b.mode.Store(ModeDurable)
	})
	return b.backend
}

func (b *Blacklist) revokeLocal(jti string, expiresAt, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.purgeLocked(now)

	if el, ok := b.entries[jti]; ok {
		el.Value.(*blacklistEntry).expiresAt = expiresAt
	} else {
		b.entries[jti] = b.order.PushBack(&blacklistEntry{jti: jti, expiresAt: expiresAt})
	}

	for b.order.Len() > b.maxEntries {
		oldest := b.order.Front()
		b.order.Remove(oldest)
		delete(b.entries, oldest.Value.(*blacklistEntry).jti)
	}
}

func (b *Blacklist) purgeLocked(now time.Time) int {
	removed := 0
	for el := b.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*blacklistEntry)
		if !now.Before(entry.expiresAt) {
			b.order.Remove(el)
			delete(b.entries, entry.jti)
			removed++
		}
		el = next
	}
	return removed
}
