package session

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neon-karaoke/backend/internal/capture"
	"github.com/neon-karaoke/backend/internal/preview"
	"github.com/neon-karaoke/backend/pkg/response"
)

// MaxChunkSize caps one relayed capture fragment (4MB).
const MaxChunkSize = 4 * 1024 * 1024

// Handler exposes the recording session lifecycle over HTTP. The page calls
// these endpoints; all state lives in the session controllers.
type Handler struct {
	manager  *Manager
	relay    *capture.Relay
	previews *preview.Registry
	logger   *zap.Logger
}

// NewHandler creates a session handler.
func NewHandler(manager *Manager, relay *capture.Relay, previews *preview.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{manager: manager, relay: relay, previews: previews, logger: logger}
}

type createRequest struct {
	ClientID string `json:"client_id"`
}

type startRequest struct {
	Handle string `json:"handle"`
}

type confirmRequest struct {
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

// Create handles POST /sessions.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	_ = c.ShouldBindJSON(&req)
	ctrl := h.manager.Create(req.ClientID)
	response.Created(c, gin.H{"session_id": ctrl.ID(), "status": ctrl.Status()})
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	ctrl := h.manager.Get(c.Param("id"))
	if ctrl == nil {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, ctrl.Status())
}

// Start handles POST /sessions/:id/start.
func (h *Handler) Start(c *gin.Context) {
	ctrl := h.manager.Get(c.Param("id"))
	if ctrl == nil {
		response.NotFound(c, "session not found")
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := ctrl.Start(c.Request.Context(), req.Handle); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, ctrl.Status())
}

// PushChunk handles POST /sessions/:id/chunks: one encoded capture fragment
// per request, raw body. Fragments outside Recording are dropped.
func (h *Handler) PushChunk(c *gin.Context) {
	ctrl := h.manager.Get(c.Param("id"))
	if ctrl == nil {
		response.NotFound(c, "session not found")
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxChunkSize+1))
	if err != nil {
		response.BadRequest(c, "read fragment")
		return
	}
	if len(data) > MaxChunkSize {
		response.BadRequest(c, "fragment too large")
		return
	}
	accepted := h.relay.Push(ctrl.ID(), data)
	response.OK(c, gin.H{"accepted": accepted})
}

// Stop handles POST /sessions/:id/stop.
func (h *Handler) Stop(c *gin.Context) {
	ctrl := h.manager.Get(c.Param("id"))
	if ctrl == nil {
		response.NotFound(c, "session not found")
		return
	}
	if err := ctrl.Stop(c.Request.Context()); err != nil {
		response.Internal(c, "stop recording")
		return
	}
	response.OK(c, ctrl.Status())
}

// Confirm handles POST /sessions/:id/confirm.
func (h *Handler) Confirm(c *gin.Context) {
	ctrl := h.manager.Get(c.Param("id"))
	if ctrl == nil {
		response.NotFound(c, "session not found")
		return
	}
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	perf, err := ctrl.ConfirmSave(c.Request.Context(), req.Handle, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	// reset_inputs tells the page to clear the handle/title fields.
	response.OK(c, gin.H{"performance": perf, "status": ctrl.Status(), "reset_inputs": true})
}

// ReRecord handles POST /sessions/:id/rerecord.
func (h *Handler) ReRecord(c *gin.Context) {
	ctrl := h.manager.Get(c.Param("id"))
	if ctrl == nil {
		response.NotFound(c, "session not found")
		return
	}
	if err := ctrl.ReRecord(); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, ctrl.Status())
}

// Preview handles GET /preview/:token, serving the artifact behind a live
// preview reference. Revoked tokens are indistinguishable from unknown ones.
func (h *Handler) Preview(c *gin.Context) {
	data, mediaType, ok := h.previews.Resolve(c.Param("token"))
	if !ok {
		response.NotFound(c, "preview not found")
		return
	}
	c.Data(http.StatusOK, mediaType, data)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrInvalidState):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrDeviceAccess):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrUpload):
		response.BadGateway(c, err.Error())
	default:
		h.logger.Error("session operation failed", zap.Error(err))
		response.Internal(c, "session operation failed")
	}
}
