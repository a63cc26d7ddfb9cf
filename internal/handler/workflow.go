package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/socialpulse/backend/internal/model"
	"github.com/socialpulse/backend/internal/service"
)

type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// ListWorkflows godoc
// @Summary List workflows of the current user
// @Tags workflows
// @Produce json
// @Security BearerAuth
// @Param status query string false "draft, ready, running, completed or failed"
// @Param favorite query bool false "Only favorites"
// @Param template query bool false "Only templates"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} model.WorkflowListResponse
// @Failure 400,401 {object} model.ErrorResponse
// @Router /api/v1/workflows [get]
func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	limit, offset, ok := parsePage(c)
	if !ok {
		return
	}
	favorites, ok := parseBoolQuery(c, "favorite")
	if !ok {
		return
	}
	templates, ok := parseBoolQuery(c, "template")
	if !ok {
		return
	}

	workflows, err := h.svc.List(c.Request.Context(), GetAuthUser(c).ID, model.WorkflowFilter{
		Status:        model.WorkflowStatus(c.Query("status")),
		FavoritesOnly: favorites,
		TemplatesOnly: templates,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.WorkflowListResponse{Status: "success", Data: workflows})
}

// CreateWorkflow godoc
// @Summary Create a workflow
// @Tags workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.WorkflowCreateRequest false "Workflow"
// @Success 201 {object} model.Workflow
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/workflows [post]
func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	var req model.WorkflowCreateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
			return
		}
	}

	w, err := h.svc.Create(c.Request.Context(), GetAuthUser(c).ID, req)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// GetWorkflow godoc
// @Summary Get a workflow
// @Tags workflows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workflow ID"
// @Success 200 {object} model.Workflow
// @Failure 400,404 {object} model.ErrorResponse
// @Router /api/v1/workflows/{id} [get]
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	id, ok := workflowID(c)
	if !ok {
		return
	}
	w, err := h.svc.Get(c.Request.Context(), GetAuthUser(c).ID, id)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// UpdateWorkflow godoc
// @Summary Update a workflow
// @Tags workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workflow ID"
// @Param request body model.WorkflowUpdateRequest true "Fields to change"
// @Success 200 {object} model.Workflow
// @Failure 400,404 {object} model.ErrorResponse
// @Router /api/v1/workflows/{id} [patch]
func (h *WorkflowHandler) UpdateWorkflow(c *gin.Context) {
	id, ok := workflowID(c)
	if !ok {
		return
	}
	var req model.WorkflowUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	w, err := h.svc.Update(c.Request.Context(), GetAuthUser(c).ID, id, req)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// RecordRun godoc
// @Summary Record a workflow run result
// @Tags workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workflow ID"
// @Param request body model.WorkflowRunRequest true "Run outcome"
// @Success 200 {object} model.Workflow
// @Failure 400,404 {object} model.ErrorResponse
// @Router /api/v1/workflows/{id}/runs [post]
func (h *WorkflowHandler) RecordRun(c *gin.Context) {
	id, ok := workflowID(c)
	if !ok {
		return
	}
	var req model.WorkflowRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	w, err := h.svc.RecordRun(c.Request.Context(), GetAuthUser(c).ID, id, req)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// DuplicateWorkflow godoc
// @Summary Copy a workflow into a new draft
// @Tags workflows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Workflow ID"
// @Success 201 {object} model.Workflow
// @Failure 400,404 {object} model.ErrorResponse
// @Router /api/v1/workflows/{id}/duplicate [post]
func (h *WorkflowHandler) DuplicateWorkflow(c *gin.Context) {
	id, ok := workflowID(c)
	if !ok {
		return
	}
	w, err := h.svc.Duplicate(c.Request.Context(), GetAuthUser(c).ID, id)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// DeleteWorkflow godoc
// @Summary Delete a workflow
// @Tags workflows
// @Security BearerAuth
// @Param id path int true "Workflow ID"
// @Success 204
// @Failure 400,404 {object} model.ErrorResponse
// @Router /api/v1/workflows/{id} [delete]
func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	id, ok := workflowID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), GetAuthUser(c).ID, id); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func workflowID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func parseBoolQuery(c *gin.Context, key string) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid " + key})
		return false, false
	}
	return v, true
}

func writeWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidWorkflowRequest):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrWorkflowNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	}
}
