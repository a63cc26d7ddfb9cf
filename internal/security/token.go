package security

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"

	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var ErrMissingSecret = errors.New("jwt signing secret is required")

// RevocationStore is the part of Blacklist the token manager depends on.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time)
	IsRevoked(ctx context.Context, jti string) bool
}

// Claims is a decoded, validated token.
type Claims struct {
	Subject   string
	ID        string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Values holds the full claim set, reserved claims included.
	Values map[string]any
}

// String returns a string claim or "".
func (c *Claims) String(key string) string {
	if v, ok := c.Values[key].(string); ok {
		return v
	}
	return ""
}

type TokenManagerOptions struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway tolerates clock skew on exp and iat. Zero by default.
	Leeway time.Duration
	Store  RevocationStore
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// TokenManager issues and validates HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	store      RevocationStore
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewTokenManager(opts TokenManagerOptions) (*TokenManager, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TokenManager{
		secret:     opts.Secret,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		leeway:     opts.Leeway,
		store:      opts.Store,
		log:        opts.Logger.WithField("component", "tokens"),
		now:        opts.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess signs an access token. ttl <= 0 uses the configured access TTL.
func (m *TokenManager) IssueAccess(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.accessTTL
	}
	return m.issue(claims, TokenTypeAccess, ttl)
}

// IssueRefresh signs a refresh token. ttl <= 0 uses the configured refresh TTL.
func (m *TokenManager) IssueRefresh(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.refreshTTL
	}
	return m.issue(claims, TokenTypeRefresh, ttl)
}

func (m *TokenManager) issue(claims map[string]any, typ TokenType, ttl time.Duration) (string, error) {
	// exp is stored in whole seconds; keep it strictly after iat.
	if ttl < time.Second {
		ttl = time.Second
	}

	now := m.now()
	payload := jwt.MapClaims{}
	maps.Copy(payload, claims)
	payload["iat"] = jwt.NewNumericDate(now)
	payload["exp"] = jwt.NewNumericDate(now.Add(ttl))
	payload["jti"] = uuid.NewString()
	payload["type"] = string(typ)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Decode validates signature, expiry and revocation. Every failure yields (nil, false).
func (m *TokenManager) Decode(ctx context.Context, tokenStr string) (*Claims, bool) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		m.log.WithError(err).Debug("rejected token")
		return nil, false
	}

	if m.store != nil && m.store.IsRevoked(ctx, claims.ID) {
		m.log.WithField("jti", claims.ID).Debug("rejected revoked token")
		return nil, false
	}
	return claims, true
}

// DecodeType is Decode restricted to one token type.
func (m *TokenManager) DecodeType(ctx context.Context, tokenStr string, typ TokenType) (*Claims, bool) {
	claims, ok := m.Decode(ctx, tokenStr)
	if !ok || claims.Type != typ {
		return nil, false
	}
	return claims, true
}

// Revoke blacklists claims until the token would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) {
	if m.store == nil || claims == nil {
		return
	}
	m.store.Revoke(ctx, claims.ID, claims.ExpiresAt)
}

func (m *TokenManager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	jti, _ := mapClaims["jti"].(string)
	if jti == "" {
		return nil, errors.New("missing jti claim")
	}

	typ, _ := mapClaims["type"].(string)
	if TokenType(typ) != TokenTypeAccess && TokenType(typ) != TokenTypeRefresh {
		return nil, fmt.Errorf("unknown token type %q", typ)
	}

	iat, err := mapClaims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, errors.New("missing iat claim")
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("missing exp claim")
	}
	sub, _ := mapClaims.GetSubject()

	return &Claims{
		Subject:   sub,
		ID:        jti,
		Type:      TokenType(typ),
		IssuedAt:  iat.Time,
		ExpiresAt: exp.Time,
		Values:    map[string]any(mapClaims),
	}, nil
}
