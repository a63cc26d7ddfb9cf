package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/socialpulse/backend/internal/config"
	"github.com/socialpulse/backend/internal/db"
	"github.com/socialpulse/backend/internal/model"
	"github.com/socialpulse/backend/internal/security"
)

const (
	refreshCookieName = "socialpulse_refresh"
	minLoginIDLength  = 3
	maxLoginIDLength  = 64
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	maxPasswordLength = 72
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrMisconfigured = errors.New("auth config invalid")
)

type UserRepository interface {
	CreateUser(ctx context.Context, loginID, passwordHash string) (*model.User, error)
	GetUserByLoginID(ctx context.Context, loginID string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

type AuthService struct {
	repo        UserRepository
	hasher      *security.Hasher
	tokens      *security.TokenManager
	allowSignup bool
	cookieCfg   CookieConfig
	log         logrus.FieldLogger
}

func NewAuthService(repo UserRepository, hasher *security.Hasher, store security.RevocationStore, cfg config.AuthConfig, log logrus.FieldLogger) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := parseDuration(cfg.JWTAccessTTL, security.DefaultAccessTTL)
	if err != nil || accessTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := parseDuration(cfg.JWTRefreshTTL, security.DefaultRefreshTTL)
	if err != nil || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	leeway, err := parseDuration(cfg.JWTLeeway, 0)
	if err != nil || leeway < 0 {
		return nil, fmt.Errorf("%w: invalid JWT_LEEWAY", ErrMisconfigured)
	}

	allowSignup, err := parseBool(cfg.AllowSignup, false)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ALLOW_SIGNUP", ErrMisconfigured)
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	tokens, err := security.NewTokenManager(security.TokenManagerOptions{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Leeway:     leeway,
		Store:      store,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfigured, err)
	}

	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		allowSignup: allowSignup,
		cookieCfg: CookieConfig{
			Name:     refreshCookieName,
			Path:     cookiePath,
			Domain:   cfg.CookieDomain,
			Secure:   cookieSecure,
			SameSite: cookieSameSite,
			MaxAge:   int(refreshTTL.Seconds()),
		},
		log: log.WithField("component", "auth"),
	}, nil
}

func (s *AuthService) EnsureAdmin(ctx context.Context, loginID, password string) error {
	if strings.TrimSpace(loginID) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: ADMIN_USERNAME/ADMIN_PASSWORD are required", ErrMisconfigured)
	}

	_, err := s.repo.GetUserByLoginID(ctx, loginID)
	if err == nil {
		return nil
	}
	if !db.IsNoRows(err) {
		return err
	}

	if err := validateCredentials(loginID, password); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	if _, err = s.repo.CreateUser(ctx, loginID, hash); err != nil {
		return err
	}
	s.log.WithField("login_id", loginID).Info("created admin user")
	return nil
}

func (s *AuthService) AllowSignup() bool {
	return s.allowSignup
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) Register(ctx context.Context, loginID, password string) (*model.TokenPair, error) {
	if !s.allowSignup {
		return nil, ErrForbidden
	}

	if err := validateCredentials(loginID, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, loginID, hash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, loginID, password string) (*model.TokenPair, error) {
	if err := validateCredentials(loginID, password); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByLoginID(ctx, loginID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	}

	return s.issueTokens(user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrUnauthorized
	}

	claims, ok := s.tokens.DecodeType(ctx, refreshToken, security.TokenTypeRefresh)
	if !ok {
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	s.tokens.Revoke(ctx, claims)
	return s.issueTokens(user)
}

// Logout revokes whichever of the two tokens still decode. It never fails.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	if strings.TrimSpace(accessToken) != "" {
		if claims, ok := s.tokens.DecodeType(ctx, accessToken, security.TokenTypeAccess); ok {
			s.tokens.Revoke(ctx, claims)
		}
	}
	if strings.TrimSpace(refreshToken) != "" {
		if claims, ok := s.tokens.DecodeType(ctx, refreshToken, security.TokenTypeRefresh); ok {
			s.tokens.Revoke(ctx, claims)
		}
	}
}

func (s *AuthService) ParseAccessToken(ctx context.Context, tokenStr string) (*model.AuthUser, error) {
	claims, ok := s.tokens.DecodeType(ctx, tokenStr, security.TokenTypeAccess)
	if !ok {
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return &model.AuthUser{
		ID:      userID,
		LoginID: claims.String("login_id"),
		TokenID: claims.ID,
	}, nil
}

func (s *AuthService) issueTokens(user *model.User) (*model.TokenPair, error) {
	claims := map[string]any{
		"sub":      strconv.FormatInt(user.ID, 10),
		"login_id": user.LoginID,
	}

	accessToken, err := s.tokens.IssueAccess(claims, 0)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefresh(map[string]any{"sub": claims["sub"]}, 0)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func validateCredentials(loginID, password string) error {
	loginID = strings.TrimSpace(loginID)

	if len(loginID) < minLoginIDLength || len(loginID) > maxLoginIDLength {
		return ErrInvalidInput
	}
	if len(strings.TrimSpace(password)) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}
