package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/socialpulse/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatRepo struct {
	sessions  map[string]*model.ChatSession
	lastLimit int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{sessions: map[string]*model.ChatSession{}}
}

func (f *fakeChatRepo) CreateChatSession(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error) {
	f.sessions[s.SessionID] = s
	return s, nil
}

func (f *fakeChatRepo) ListChatSessions(ctx context.Context, userID int64, limit, offset int) ([]model.ChatSession, error) {
	f.lastLimit = limit
	out := []model.ChatSession{}
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) GetChatSession(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error) {
	if s, ok := f.sessions[sessionID]; ok && s.UserID == userID {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeChatRepo) RenameChatSession(ctx context.Context, userID int64, sessionID, title string) (*model.ChatSession, error) {
	s, err := f.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	s.Title = title
	return s, nil
}

func (f *fakeChatRepo) DeleteChatSession(ctx context.Context, userID int64, sessionID string) (bool, error) {
	if _, err := f.GetChatSession(ctx, userID, sessionID); err != nil {
		return false, nil
	}
	delete(f.sessions, sessionID)
	return true, nil
}

func TestChatCreateDefaults(t *testing.T) {
	svc := NewChatService(newFakeChatRepo())

	s, err := svc.Create(context.Background(), 7, model.ChatSessionCreateRequest{})
	require.NoError(t, err)

	_, err = uuid.Parse(s.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, "New Chat", s.Title)
	assert.Equal(t, "gemini", s.Model)
	assert.Equal(t, "script", s.Mode)
	assert.Nil(t, s.ContextType)
	assert.NotNil(t, s.ContextData)
}

func TestChatCreateRejectsLongTitle(t *testing.T) {
	svc := NewChatService(newFakeChatRepo())

	_, err := svc.Create(context.Background(), 1, model.ChatSessionCreateRequest{Title: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, ErrInvalidChatRequest)
}

func TestChatOwnership(t *testing.T) {
	ctx := context.Background()
	svc := NewChatService(newFakeChatRepo())

	s, err := svc.Create(ctx, 1, model.ChatSessionCreateRequest{Title: "Trends", ContextType: "video"})
	require.NoError(t, err)
	require.NotNil(t, s.ContextType)
	assert.Equal(t, "video", *s.ContextType)

	_, err = svc.Get(ctx, 2, s.SessionID)
	assert.ErrorIs(t, err, ErrChatNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, s.SessionID), ErrChatNotFound)

	got, err := svc.Get(ctx, 1, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Trends", got.Title)

	renamed, err := svc.Rename(ctx, 1, s.SessionID, "  Hooks  ")
	require.NoError(t, err)
	assert.Equal(t, "Hooks", renamed.Title)

	require.NoError(t, svc.Delete(ctx, 1, s.SessionID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, s.SessionID), ErrChatNotFound)
}

func TestChatRejectsMalformedSessionID(t *testing.T) {
	ctx := context.Background()
	svc := NewChatService(newFakeChatRepo())

	_, err := svc.Get(ctx, 1, "not-a-uuid")
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = svc.Rename(ctx, 1, uuid.NewString(), "")
	assert.ErrorIs(t, err, ErrInvalidChatRequest)
}

func TestChatListClampsLimit(t *testing.T) {
	repo := newFakeChatRepo()
	svc := NewChatService(repo)

	_, err := svc.List(context.Background(), 1, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastLimit)

	_, err = svc.List(context.Background(), 1, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)
}
