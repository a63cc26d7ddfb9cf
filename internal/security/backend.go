package security

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var ErrUnsupportedBackend = errors.New("unsupported revocation store")

// DialerForURL picks a backend from the URL scheme. An empty URL yields a nil
// Dialer, which keeps the blacklist in memory.
func DialerForURL(rawURL string) (Dialer, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBackend, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss", "unix":
		return func(ctx context.Context) (RevocationBackend, error) {
			return NewRedisBackend(rawURL)
		}, nil
	case "postgres", "postgresql":
		return func(ctx context.Context) (RevocationBackend, error) {
			return NewPostgresBackend(ctx, rawURL)
		}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedBackend, u.Scheme)
	}
}

type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(rawURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	// Retries would stretch a call past the blacklist timeout.
	opts.MaxRetries = -1
	return &RedisBackend{client: redis.NewClient(opts)}, nil
}

func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBackend) SetRevoked(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, key, "1", ttl).Err()
}

func (r *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// PostgresBackend keeps revoked ids in a table. Rows are filtered by
// expires_at on read and removed by PurgeExpired.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	shared bool
}

func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

// NewPostgresBackendFromPool borrows pool. Close leaves it open for its owner.
func NewPostgresBackendFromPool(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool, shared: true}
}

// PoolDialer stores revocations through an existing pool instead of dialing a new one.
func PoolDialer(pool *pgxpool.Pool) Dialer {
	return func(ctx context.Context) (RevocationBackend, error) {
		return NewPostgresBackendFromPool(pool), nil
	}
}

// Ping also creates the table so the first write cannot fail on a fresh database.
func (p *PostgresBackend) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			jti_key TEXT PRIMARY KEY,
			expires_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (p *PostgresBackend) SetRevoked(ctx context.Context, key string, ttl time.Duration) error {
	query := `
		INSERT INTO revoked_tokens (jti_key, expires_at)
		VALUES ($1, NOW() + make_interval(secs => $2))
		ON CONFLICT (jti_key) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`
	_, err := p.pool.Exec(ctx, query, key, ttl.Seconds())
	return err
}

func (p *PostgresBackend) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti_key = $1 AND expires_at > NOW())`
	var found bool
	if err := p.pool.QueryRow(ctx, query, key).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (p *PostgresBackend) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresBackend) Close() error {
	if !p.shared {
		p.pool.Close()
	}
	return nil
}
