package db

import (
	"context"

	"github.com/socialpulse/backend/internal/model"
)

const workflowColumns = `
	id, user_id, name, description, graph_data, node_configs, status,
	last_run_at, last_run_results, is_template, template_category,
	canvas_state, tags, is_favorite, created_at, updated_at
`

func (db *Postgres) EnsureWorkflowSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS workflows (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL DEFAULT 'Untitled Workflow',
			description TEXT,
			graph_data JSONB NOT NULL DEFAULT '{"nodes":[],"connections":[]}',
			node_configs JSONB NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'draft'
				CHECK (status IN ('draft', 'ready', 'running', 'completed', 'failed')),
			last_run_at TIMESTAMPTZ,
			last_run_results JSONB NOT NULL DEFAULT '{}',
			is_template BOOLEAN NOT NULL DEFAULT FALSE,
			template_category VARCHAR(100),
			canvas_state JSONB NOT NULL DEFAULT '{"zoom":1,"panX":0,"panY":0}',
			tags JSONB NOT NULL DEFAULT '[]',
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS workflows_user_updated_idx ON workflows(user_id, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS workflows_user_status_idx ON workflows(user_id, status)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (db *Postgres) CreateWorkflow(ctx context.Context, w *model.Workflow) (*model.Workflow, error) {
	query := `
		INSERT INTO workflows (
			user_id, name, description, graph_data, node_configs, status,
			is_template, template_category, canvas_state, tags, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING ` + workflowColumns

	row := db.Pool.QueryRow(ctx, query,
		w.UserID, w.Name, w.Description, w.GraphData, w.NodeConfigs, string(w.Status),
		w.IsTemplate, w.TemplateCategory, w.CanvasState, w.Tags,
	)
	return scanWorkflow(row)
}

func (db *Postgres) ListWorkflows(ctx context.Context, userID int64, filter model.WorkflowFilter) ([]model.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE user_id = $1
			AND ($2::text = '' OR status = $2::text)
			AND (NOT $3::boolean OR is_favorite)
			AND (NOT $4::boolean OR is_template)
		ORDER BY updated_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := db.Pool.Query(ctx, query,
		userID, string(filter.Status), filter.FavoritesOnly, filter.TemplatesOnly, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := []model.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *w)
	}
	return workflows, rows.Err()
}

func (db *Postgres) GetWorkflow(ctx context.Context, userID, workflowID int64) (*model.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE user_id = $1 AND id = $2
	`
	return scanWorkflow(db.Pool.QueryRow(ctx, query, userID, workflowID))
}

// UpdateWorkflow applies the non-nil fields of patch.
func (db *Postgres) UpdateWorkflow(ctx context.Context, userID, workflowID int64, patch model.WorkflowUpdateRequest) (*model.Workflow, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE workflows SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			graph_data = COALESCE($5, graph_data),
			node_configs = COALESCE($6, node_configs),
			canvas_state = COALESCE($7, canvas_state),
			tags = COALESCE($8, tags),
			status = COALESCE($9, status),
			is_template = COALESCE($10, is_template),
			template_category = COALESCE($11, template_category),
			is_favorite = COALESCE($12, is_favorite),
			updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + workflowColumns

	row := db.Pool.QueryRow(ctx, query,
		userID, workflowID,
		patch.Name, patch.Description, patch.GraphData, patch.NodeConfigs, patch.CanvasState, patch.Tags,
		status, patch.IsTemplate, patch.TemplateCategory, patch.IsFavorite,
	)
	return scanWorkflow(row)
}

func (db *Postgres) RecordWorkflowRun(ctx context.Context, userID, workflowID int64, status model.WorkflowStatus, results map[string]any) (*model.Workflow, error) {
	query := `
		UPDATE workflows
		SET status = $3, last_run_at = NOW(), last_run_results = $4, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + workflowColumns
	return scanWorkflow(db.Pool.QueryRow(ctx, query, userID, workflowID, string(status), results))
}

// DeleteWorkflow reports whether a row was removed.
func (db *Postgres) DeleteWorkflow(ctx context.Context, userID, workflowID int64) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workflows WHERE user_id = $1 AND id = $2`, userID, workflowID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanWorkflow(row rowScanner) (*model.Workflow, error) {
	var (
		w      model.Workflow
		status string
	)
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Name,
		&w.Description,
		&w.GraphData,
		&w.NodeConfigs,
		&status,
		&w.LastRunAt,
		&w.LastRunResults,
		&w.IsTemplate,
		&w.TemplateCategory,
		&w.CanvasState,
		&w.Tags,
		&w.IsFavorite,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Status = model.WorkflowStatus(status)
	return &w, nil
}
