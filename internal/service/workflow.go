package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/socialpulse/backend/internal/db"
	"github.com/socialpulse/backend/internal/model"
)

const (
	defaultWorkflowName   = "Untitled Workflow"
	maxWorkflowName       = 255
	maxTemplateCategory   = 100
	maxWorkflowPageSize   = 100
	duplicateWorkflowMark = " (copy)"
)

var (
	ErrInvalidWorkflowRequest = errors.New("invalid workflow request")
	ErrWorkflowNotFound       = errors.New("workflow not found")
)

type WorkflowRepository interface {
	CreateWorkflow(ctx context.Context, w *model.Workflow) (*model.Workflow, error)
	ListWorkflows(ctx context.Context, userID int64, filter model.WorkflowFilter) ([]model.Workflow, error)
	GetWorkflow(ctx context.Context, userID, workflowID int64) (*model.Workflow, error)
	UpdateWorkflow(ctx context.Context, userID, workflowID int64, patch model.WorkflowUpdateRequest) (*model.Workflow, error)
	RecordWorkflowRun(ctx context.Context, userID, workflowID int64, status model.WorkflowStatus, results map[string]any) (*model.Workflow, error)
	DeleteWorkflow(ctx context.Context, userID, workflowID int64) (bool, error)
}

type WorkflowService struct {
	repo WorkflowRepository
}

func NewWorkflowService(repo WorkflowRepository) *WorkflowService {
	return &WorkflowService{repo: repo}
}

func ValidWorkflowStatus(status model.WorkflowStatus) bool {
	switch status {
	case model.WorkflowStatusDraft, model.WorkflowStatusReady, model.WorkflowStatusRunning,
		model.WorkflowStatusCompleted, model.WorkflowStatusFailed:
		return true
	}
	return false
}

func (s *WorkflowService) Create(ctx context.Context, userID int64, req model.WorkflowCreateRequest) (*model.Workflow, error) {
	name := firstNonEmpty(req.Name, defaultWorkflowName)
	if len(name) > maxWorkflowName {
		return nil, fmt.Errorf("%w: name longer than %d characters", ErrInvalidWorkflowRequest, maxWorkflowName)
	}

	w := &model.Workflow{
		UserID:      userID,
		Name:        name,
		GraphData:   req.GraphData,
		NodeConfigs: req.NodeConfigs,
		CanvasState: req.CanvasState,
		Tags:        req.Tags,
		Status:      model.WorkflowStatusDraft,
		IsTemplate:  req.IsTemplate,
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		w.Description = &description
	}
	if category := strings.TrimSpace(req.TemplateCategory); category != "" {
		if len(category) > maxTemplateCategory {
			return nil, fmt.Errorf("%w: template category longer than %d characters", ErrInvalidWorkflowRequest, maxTemplateCategory)
		}
		w.TemplateCategory = &category
	}
	applyWorkflowDefaults(w)

	return s.repo.CreateWorkflow(ctx, w)
}

func (s *WorkflowService) List(ctx context.Context, userID int64, filter model.WorkflowFilter) ([]model.Workflow, error) {
	if filter.Status != "" && !ValidWorkflowStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidWorkflowRequest, filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > maxWorkflowPageSize {
		filter.Limit = maxWorkflowPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListWorkflows(ctx, userID, filter)
}

func (s *WorkflowService) Get(ctx context.Context, userID, workflowID int64) (*model.Workflow, error) {
	w, err := s.repo.GetWorkflow(ctx, userID, workflowID)
	return w, mapWorkflowError(err)
}

func (s *WorkflowService) Update(ctx context.Context, userID, workflowID int64, req model.WorkflowUpdateRequest) (*model.Workflow, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > maxWorkflowName {
			return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidWorkflowRequest, maxWorkflowName)
		}
		req.Name = &name
	}
	if req.Status != nil && !ValidWorkflowStatus(*req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidWorkflowRequest, *req.Status)
	}
	if req.TemplateCategory != nil && len(strings.TrimSpace(*req.TemplateCategory)) > maxTemplateCategory {
		return nil, fmt.Errorf("%w: template category longer than %d characters", ErrInvalidWorkflowRequest, maxTemplateCategory)
	}
	if req.Tags != nil && *req.Tags == nil {
		empty := []string{}
		req.Tags = &empty
	}

	w, err := s.repo.UpdateWorkflow(ctx, userID, workflowID, req)
	return w, mapWorkflowError(err)
}

// RecordRun stores the outcome of an execution. Only run states are accepted.
func (s *WorkflowService) RecordRun(ctx context.Context, userID, workflowID int64, req model.WorkflowRunRequest) (*model.Workflow, error) {
	switch req.Status {
	case model.WorkflowStatusRunning, model.WorkflowStatusCompleted, model.WorkflowStatusFailed:
	default:
		return nil, fmt.Errorf("%w: run status must be running, completed or failed", ErrInvalidWorkflowRequest)
	}
	results := req.Results
	if results == nil {
		results = map[string]any{}
	}

	w, err := s.repo.RecordWorkflowRun(ctx, userID, workflowID, req.Status, results)
	return w, mapWorkflowError(err)
}

// Duplicate copies a workflow (typically a template) into a fresh draft.
func (s *WorkflowService) Duplicate(ctx context.Context, userID, workflowID int64) (*model.Workflow, error) {
	src, err := s.repo.GetWorkflow(ctx, userID, workflowID)
	if err != nil {
		return nil, mapWorkflowError(err)
	}

	name := src.Name
	if len(name)+len(duplicateWorkflowMark) <= maxWorkflowName {
		name += duplicateWorkflowMark
	}
	copied := &model.Workflow{
		UserID:      userID,
		Name:        name,
		Description: src.Description,
		GraphData:   src.GraphData,
		NodeConfigs: src.NodeConfigs,
		CanvasState: src.CanvasState,
		Tags:        src.Tags,
		Status:      model.WorkflowStatusDraft,
	}
	applyWorkflowDefaults(copied)

	return s.repo.CreateWorkflow(ctx, copied)
}

func (s *WorkflowService) Delete(ctx context.Context, userID, workflowID int64) error {
	deleted, err := s.repo.DeleteWorkflow(ctx, userID, workflowID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorkflowNotFound
	}
	return nil
}

func applyWorkflowDefaults(w *model.Workflow) {
	if w.GraphData == nil {
		w.GraphData = map[string]any{"nodes": []any{}, "connections": []any{}}
	}
	if w.NodeConfigs == nil {
		w.NodeConfigs = map[string]any{}
	}
	if w.CanvasState == nil {
		w.CanvasState = map[string]any{"zoom": 1, "panX": 0, "panY": 0}
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
}

func mapWorkflowError(err error) error {
	if err != nil && db.IsNoRows(err) {
		return ErrWorkflowNotFound
	}
	return err
}
