package enrollments

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pranaflow/backend/internal/courses"
	"github.com/pranaflow/backend/internal/middleware"
	"github.com/pranaflow/backend/pkg/response"
)

// Handler handles enrollment HTTP endpoints.
type Handler struct {
	repo       *Repository
	courseRepo *courses.Repository
	logger     *zap.Logger
}

// NewHandler creates an enrollments handler.
func NewHandler(repo *Repository, courseRepo *courses.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, courseRepo: courseRepo, logger: logger}
}

// Enroll handles POST /courses/:id/enroll. Only published courses accept
// enrollments; enrolling twice is a conflict, not a second row.
func (h *Handler) Enroll(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	co, err := h.courseRepo.GetByID(c.Request.Context(), courseID)
	if err != nil || !co.Published {
		response.NotFound(c, "course not found")
		return
	}

	enrollment, created, err := h.repo.Enroll(c.Request.Context(), courseID, userID)
	if err != nil {
		h.logger.Error("enroll failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to enroll")
		return
	}
	if !created {
		response.Conflict(c, "already enrolled")
		return
	}
	response.Created(c, enrollment)
}

// ListMine handles GET /me/enrollments.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list enrollments failed", zap.Error(err))
		response.Internal(c, "failed to list enrollments")
		return
	}
	response.OK(c, list)
}
