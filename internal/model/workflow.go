package model

import "time"

type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusReady     WorkflowStatus = "ready"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

type Workflow struct {
	ID               int64          `json:"id"`
	UserID           int64          `json:"-"`
	Name             string         `json:"name"`
	Description      *string        `json:"description,omitempty"`
	GraphData        map[string]any `json:"graph_data"`
	NodeConfigs      map[string]any `json:"node_configs"`
	Status           WorkflowStatus `json:"status"`
	LastRunAt        *time.Time     `json:"last_run_at,omitempty"`
	LastRunResults   map[string]any `json:"last_run_results"`
	IsTemplate       bool           `json:"is_template"`
	TemplateCategory *string        `json:"template_category,omitempty"`
	CanvasState      map[string]any `json:"canvas_state"`
	Tags             []string       `json:"tags"`
	IsFavorite       bool           `json:"is_favorite"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type WorkflowCreateRequest struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	GraphData        map[string]any `json:"graph_data"`
	NodeConfigs      map[string]any `json:"node_configs"`
	CanvasState      map[string]any `json:"canvas_state"`
	Tags             []string       `json:"tags"`
	IsTemplate       bool           `json:"is_template"`
	TemplateCategory string         `json:"template_category"`
}

// WorkflowUpdateRequest is a partial update; nil fields are left unchanged.
type WorkflowUpdateRequest struct {
	Name             *string         `json:"name"`
	Description      *string         `json:"description"`
	GraphData        *map[string]any `json:"graph_data"`
	NodeConfigs      *map[string]any `json:"node_configs"`
	CanvasState      *map[string]any `json:"canvas_state"`
	Tags             *[]string       `json:"tags"`
	Status           *WorkflowStatus `json:"status"`
	IsTemplate       *bool           `json:"is_template"`
	TemplateCategory *string         `json:"template_category"`
	IsFavorite       *bool           `json:"is_favorite"`
}

type WorkflowRunRequest struct {
	Status  WorkflowStatus `json:"status" binding:"required"`
	Results map[string]any `json:"results"`
}

type WorkflowFilter struct {
	Status        WorkflowStatus
	FavoritesOnly bool
	TemplatesOnly bool
	Limit         int
	Offset        int
}

type WorkflowListResponse struct {
	Status string     `json:"status"`
	Data   []Workflow `json:"data"`
}
