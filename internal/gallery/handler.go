package gallery

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neon-karaoke/backend/internal/models"
	"github.com/neon-karaoke/backend/internal/performances"
	"github.com/neon-karaoke/backend/pkg/response"
)

// Publisher signals that the performance collection changed. Satisfied by the
// performances feed.
type Publisher interface {
	Publish(ctx context.Context) error
}

// Handler serves the rendered gallery and reaction taps.
type Handler struct {
	repo     *performances.Repository
	renderer *Renderer
	feed     Publisher
	logger   *zap.Logger
}

// NewHandler creates a gallery handler.
func NewHandler(repo *performances.Repository, renderer *Renderer, feed Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, renderer: renderer, feed: feed, logger: logger}
}

// List handles GET /performances: the same rendered projection the live feed
// pushes, for initial page load.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list performances failed", zap.Error(err))
		response.Internal(c, "failed to list performances")
		return
	}
	response.OK(c, h.renderer.Render(list))
}

// React handles POST /performances/:id/reactions/:kind.
func (h *Handler) React(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid performance id")
		return
	}
	kind := c.Param("kind")
	if !models.ValidReaction(kind) {
		response.BadRequest(c, "unknown reaction")
		return
	}
	if err := h.repo.IncrementReaction(c.Request.Context(), id, kind); err != nil {
		h.logger.Error("increment reaction failed", zap.Error(err), zap.String("performance_id", id.String()))
		response.NotFound(c, "performance not found")
		return
	}
	if h.feed != nil {
		if err := h.feed.Publish(c.Request.Context()); err != nil {
			h.logger.Warn("change publish failed", zap.Error(err))
		}
	}
	response.OK(c, gin.H{"id": id, "reaction": kind})
}
