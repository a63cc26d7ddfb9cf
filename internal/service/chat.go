package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/socialpulse/backend/internal/db"
	"github.com/socialpulse/backend/internal/model"
)

const (
	defaultChatTitle = "New Chat"
	defaultChatModel = "gemini"
	defaultChatMode  = "script"
	maxChatTitle     = 255
	maxChatPageSize  = 100
)

var (
	ErrInvalidChatRequest = errors.New("invalid chat request")
	ErrChatNotFound       = errors.New("chat session not found")
)

type ChatRepository interface {
	CreateChatSession(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error)
	ListChatSessions(ctx context.Context, userID int64, limit, offset int) ([]model.ChatSession, error)
	GetChatSession(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error)
	RenameChatSession(ctx context.Context, userID int64, sessionID, title string) (*model.ChatSession, error)
	DeleteChatSession(ctx context.Context, userID int64, sessionID string) (bool, error)
}

type ChatService struct {
	repo ChatRepository
}

func NewChatService(repo ChatRepository) *ChatService {
	return &ChatService{repo: repo}
}

func (s *ChatService) Create(ctx context.Context, userID int64, req model.ChatSessionCreateRequest) (*model.ChatSession, error) {
	title := firstNonEmpty(req.Title, defaultChatTitle)
	if len(title) > maxChatTitle {
		return nil, fmt.Errorf("%w: title longer than %d characters", ErrInvalidChatRequest, maxChatTitle)
	}

	session := &model.ChatSession{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		Title:       title,
		ContextID:   req.ContextID,
		ContextData: req.ContextData,
		Model:       firstNonEmpty(req.Model, defaultChatModel),
		Mode:        firstNonEmpty(req.Mode, defaultChatMode),
	}
	if contextType := strings.TrimSpace(req.ContextType); contextType != "" {
		session.ContextType = &contextType
	}
	if session.ContextData == nil {
		session.ContextData = map[string]any{}
	}

	return s.repo.CreateChatSession(ctx, session)
}

func (s *ChatService) List(ctx context.Context, userID int64, limit, offset int) ([]model.ChatSession, error) {
	if limit <= 0 || limit > maxChatPageSize {
		limit = maxChatPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListChatSessions(ctx, userID, limit, offset)
}

func (s *ChatService) Get(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrChatNotFound
	}
	session, err := s.repo.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *ChatService) Rename(ctx context.Context, userID int64, sessionID, title string) (*model.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxChatTitle {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidChatRequest, maxChatTitle)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrChatNotFound
	}

	session, err := s.repo.RenameChatSession(ctx, userID, sessionID, title)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *ChatService) Delete(ctx context.Context, userID int64, sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return ErrChatNotFound
	}
	deleted, err := s.repo.DeleteChatSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrChatNotFound
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
