package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/socialpulse/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflowRepo struct {
	nextID     int64
	workflows  map[int64]*model.Workflow
	lastFilter model.WorkflowFilter
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{workflows: map[int64]*model.Workflow{}}
}

func (f *fakeWorkflowRepo) CreateWorkflow(ctx context.Context, w *model.Workflow) (*model.Workflow, error) {
	f.nextID++
	w.ID = f.nextID
	f.workflows[w.ID] = w
	return w, nil
}

func (f *fakeWorkflowRepo) ListWorkflows(ctx context.Context, userID int64, filter model.WorkflowFilter) ([]model.Workflow, error) {
	f.lastFilter = filter
	out := []model.Workflow{}
	for _, w := range f.workflows {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkflowRepo) GetWorkflow(ctx context.Context, userID, workflowID int64) (*model.Workflow, error) {
	if w, ok := f.workflows[workflowID]; ok && w.UserID == userID {
		return w, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeWorkflowRepo) UpdateWorkflow(ctx context.Context, userID, workflowID int64, patch model.WorkflowUpdateRequest) (*model.Workflow, error) {
	w, err := f.GetWorkflow(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	if patch.Status != nil {
		w.Status = *patch.Status
	}
	if patch.Tags != nil {
		w.Tags = *patch.Tags
	}
	if patch.IsFavorite != nil {
		w.IsFavorite = *patch.IsFavorite
	}
	return w, nil
}

func (f *fakeWorkflowRepo) RecordWorkflowRun(ctx context.Context, userID, workflowID int64, status model.WorkflowStatus, results map[string]any) (*model.Workflow, error) {
	w, err := f.GetWorkflow(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	w.Status = status
	w.LastRunAt = &now
	w.LastRunResults = results
	return w, nil
}

func (f *fakeWorkflowRepo) DeleteWorkflow(ctx context.Context, userID, workflowID int64) (bool, error) {
	if _, err := f.GetWorkflow(ctx, userID, workflowID); err != nil {
		return false, nil
	}
	delete(f.workflows, workflowID)
	return true, nil
}

func TestWorkflowCreateDefaults(t *testing.T) {
	svc := NewWorkflowService(newFakeWorkflowRepo())

	w, err := svc.Create(context.Background(), 3, model.WorkflowCreateRequest{Description: "  "})
	require.NoError(t, err)

	assert.Equal(t, int64(3), w.UserID)
	assert.Equal(t, "Untitled Workflow", w.Name)
	assert.Equal(t, model.WorkflowStatusDraft, w.Status)
	assert.Nil(t, w.Description)
	assert.Nil(t, w.TemplateCategory)
	assert.Contains(t, w.GraphData, "nodes")
	assert.Contains(t, w.GraphData, "connections")
	assert.Equal(t, 1, w.CanvasState["zoom"])
	assert.NotNil(t, w.NodeConfigs)
	assert.Equal(t, []string{}, w.Tags)
}

func TestWorkflowCreateValidates(t *testing.T) {
	svc := NewWorkflowService(newFakeWorkflowRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, model.WorkflowCreateRequest{Name: strings.Repeat("w", 256)})
	assert.ErrorIs(t, err, ErrInvalidWorkflowRequest)

	_, err = svc.Create(ctx, 1, model.WorkflowCreateRequest{TemplateCategory: strings.Repeat("c", 101)})
	assert.ErrorIs(t, err, ErrInvalidWorkflowRequest)

	w, err := svc.Create(ctx, 1, model.WorkflowCreateRequest{Name: " Trend digest ", IsTemplate: true, TemplateCategory: "reports"})
	require.NoError(t, err)
	assert.Equal(t, "Trend digest", w.Name)
	assert.True(t, w.IsTemplate)
	require.NotNil(t, w.TemplateCategory)
	assert.Equal(t, "reports", *w.TemplateCategory)
}

func TestWorkflowListFilter(t *testing.T) {
	repo := newFakeWorkflowRepo()
	svc := NewWorkflowService(repo)
	ctx := context.Background()

	_, err := svc.List(ctx, 1, model.WorkflowFilter{Status: "paused"})
	assert.ErrorIs(t, err, ErrInvalidWorkflowRequest)

	_, err = svc.List(ctx, 1, model.WorkflowFilter{Status: model.WorkflowStatusReady, Limit: 1000, Offset: -4})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastFilter.Limit)
	assert.Equal(t, 0, repo.lastFilter.Offset)
	assert.Equal(t, model.WorkflowStatusReady, repo.lastFilter.Status)
}

func TestWorkflowUpdate(t *testing.T) {
	svc := NewWorkflowService(newFakeWorkflowRepo())
	ctx := context.Background()

	w, err := svc.Create(ctx, 1, model.WorkflowCreateRequest{Name: "Draft"})
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(ctx, 1, w.ID, model.WorkflowUpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidWorkflowRequest)

	bogus := model.WorkflowStatus("archived")
	_, err = svc.Update(ctx, 1, w.ID, model.WorkflowUpdateRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidWorkflowRequest)

	name := " Ready flow "
	ready := model.WorkflowStatusReady
	favorite := true
	var noTags []string
	updated, err := svc.Update(ctx, 1, w.ID, model.WorkflowUpdateRequest{Name: &name, Status: &ready, IsFavorite: &favorite, Tags: &noTags})
	require.NoError(t, err)
	assert.Equal(t, "Ready flow", updated.Name)
	assert.Equal(t, model.WorkflowStatusReady, updated.Status)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, []string{}, updated.Tags)

	_, err = svc.Update(ctx, 2, w.ID, model.WorkflowUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflowRecordRun(t *testing.T) {
	svc := NewWorkflowService(newFakeWorkflowRepo())
	ctx := context.Background()

	w, err := svc.Create(ctx, 1, model.WorkflowCreateRequest{})
	require.NoError(t, err)

	for _, status := range []model.WorkflowStatus{model.WorkflowStatusDraft, model.WorkflowStatusReady, "bogus"} {
		_, err = svc.RecordRun(ctx, 1, w.ID, model.WorkflowRunRequest{Status: status})
		assert.ErrorIs(t, err, ErrInvalidWorkflowRequest, status)
	}

	run, err := svc.RecordRun(ctx, 1, w.ID, model.WorkflowRunRequest{Status: model.WorkflowStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowStatusCompleted, run.Status)
	assert.NotNil(t, run.LastRunAt)
	assert.NotNil(t, run.LastRunResults)

	_, err = svc.RecordRun(ctx, 1, 999, model.WorkflowRunRequest{Status: model.WorkflowStatusFailed})
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflowDuplicate(t *testing.T) {
	svc := NewWorkflowService(newFakeWorkflowRepo())
	ctx := context.Background()

	src, err := svc.Create(ctx, 1, model.WorkflowCreateRequest{
		Name:       "Sentiment template",
		Tags:       []string{"sentiment"},
		IsTemplate: true,
	})
	require.NoError(t, err)

	cp, err := svc.Duplicate(ctx, 1, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, "Sentiment template (copy)", cp.Name)
	assert.Equal(t, model.WorkflowStatusDraft, cp.Status)
	assert.False(t, cp.IsTemplate)
	assert.Equal(t, []string{"sentiment"}, cp.Tags)

	_, err = svc.Duplicate(ctx, 2, src.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflowGetAndDeleteScopedToOwner(t *testing.T) {
	svc := NewWorkflowService(newFakeWorkflowRepo())
	ctx := context.Background()

	w, err := svc.Create(ctx, 1, model.WorkflowCreateRequest{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, w.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, w.ID), ErrWorkflowNotFound)

	got, err := svc.Get(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, 1, w.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, w.ID), ErrWorkflowNotFound)
}
