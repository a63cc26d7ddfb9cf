package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/socialpulse/backend/internal/model"
	"github.com/socialpulse/backend/internal/service"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// ListSessions godoc
// @Summary List chat sessions of the current user
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} model.ChatSessionListResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/chat/sessions [get]
func (h *ChatHandler) ListSessions(c *gin.Context) {
	limit, offset, ok := parsePage(c)
	if !ok {
		return
	}

	sessions, err := h.svc.List(c.Request.Context(), GetAuthUser(c).ID, limit, offset)
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ChatSessionListResponse{Status: "success", Data: sessions})
}

// CreateSession godoc
// @Summary Create a chat session
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChatSessionCreateRequest false "Session options"
// @Success 201 {object} model.ChatSession
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/chat/sessions [post]
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req model.ChatSessionCreateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
			return
		}
	}

	session, err := h.svc.Create(c.Request.Context(), GetAuthUser(c).ID, req)
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession godoc
// @Summary Get a chat session
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} model.ChatSession
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/chat/sessions/{id} [get]
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"))
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// RenameSession godoc
// @Summary Rename a chat session
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body model.ChatSessionRenameRequest true "New title"
// @Success 200 {object} model.ChatSession
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/chat/sessions/{id} [patch]
func (h *ChatHandler) RenameSession(c *gin.Context) {
	var req model.ChatSessionRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.svc.Rename(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"), req.Title)
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeleteSession godoc
// @Summary Delete a chat session
// @Tags chat
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/chat/sessions/{id} [delete]
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetAuthUser(c).ID, c.Param("id")); err != nil {
		writeChatError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidChatRequest):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrChatNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	}
}

// parsePage reads optional limit/offset query values. It writes a 400 and
// returns false when either is not a non-negative integer.
func parsePage(c *gin.Context) (int, int, bool) {
	values := [2]int{}
	for i, key := range []string{"limit", "offset"} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid " + key})
			return 0, 0, false
		}
		values[i] = n
	}
	return values[0], values[1], true
}
