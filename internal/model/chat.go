package model

import "time"

type ChatSession struct {
	SessionID    string         `json:"session_id"`
	UserID       int64          `json:"-"`
	Title        string         `json:"title"`
	ContextType  *string        `json:"context_type,omitempty"`
	ContextID    *int64         `json:"context_id,omitempty"`
	ContextData  map[string]any `json:"context_data"`
	Model        string         `json:"model"`
	Mode         string         `json:"mode"`
	MessageCount int            `json:"message_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ChatSessionCreateRequest struct {
	Title       string         `json:"title"`
	ContextType string         `json:"context_type"`
	ContextID   *int64         `json:"context_id"`
	ContextData map[string]any `json:"context_data"`
	Model       string         `json:"model"`
	Mode        string         `json:"mode"`
}

type ChatSessionRenameRequest struct {
	Title string `json:"title" binding:"required"`
}

type ChatSessionListResponse struct {
	Status string        `json:"status"`
	Data   []ChatSession `json:"data"`
}
