package practice

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pranaflow/backend/internal/courses"
	"github.com/pranaflow/backend/internal/enrollments"
	"github.com/pranaflow/backend/internal/middleware"
	"github.com/pranaflow/backend/internal/models"
	"github.com/pranaflow/backend/pkg/response"
)

// LogRequest is the body for POST /practice.
type LogRequest struct {
	ClassID     string  `json:"class_id" binding:"required,uuid"`
	DurationMin int     `json:"duration_min"`
	PracticedAt *string `json:"practiced_at"` // RFC3339; defaults to now
}

// Handler handles practice HTTP endpoints.
type Handler struct {
	repo       *Repository
	courseRepo *courses.Repository
	enrollRepo *enrollments.Repository
	logger     *zap.Logger
}

// NewHandler creates a practice handler.
func NewHandler(repo *Repository, courseRepo *courses.Repository, enrollRepo *enrollments.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, courseRepo: courseRepo, enrollRepo: enrollRepo, logger: logger}
}

// Log handles POST /practice. Records one completed session; the duration
// defaults to the class video duration when omitted.
func (h *Handler) Log(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	classID, _ := uuid.Parse(req.ClassID)

	cl, err := h.courseRepo.GetClassByID(c.Request.Context(), classID)
	if err != nil {
		response.NotFound(c, "class not found")
		return
	}

	// Students log practice only for courses they are enrolled in; teachers
	// and admins may log against any class.
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if role == string(models.RoleStudent) {
		enrolled, err := h.enrollRepo.IsEnrolled(c.Request.Context(), cl.CourseID, userID)
		if err != nil {
			h.logger.Error("enrollment check failed", zap.Error(err), zap.String("course_id", cl.CourseID.String()))
			response.Internal(c, "failed to log practice")
			return
		}
		if !enrolled {
			response.Forbidden(c, "enroll in the course to log practice")
			return
		}
	}

	duration := req.DurationMin
	if duration <= 0 && cl.Playable() {
		duration = cl.DurationMin
	}
	if duration <= 0 {
		response.BadRequest(c, "duration_min required for a class without a ready video")
		return
	}

	practicedAt := time.Now().UTC()
	if req.PracticedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.PracticedAt)
		if err != nil {
			response.BadRequest(c, "invalid practiced_at")
			return
		}
		practicedAt = t
	}

	log := &models.PracticeLog{
		UserID:      userID,
		ClassID:     classID,
		DurationMin: duration,
		PracticedAt: practicedAt,
	}
	if err := h.repo.Log(c.Request.Context(), log); err != nil {
		h.logger.Error("log practice failed", zap.Error(err), zap.String("class_id", classID.String()))
		response.Internal(c, "failed to log practice")
		return
	}
	response.Created(c, log)
}

// ListMine handles GET /me/practice.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list practice failed", zap.Error(err))
		response.Internal(c, "failed to list practice log")
		return
	}
	response.OK(c, list)
}

// Stats handles GET /me/practice/stats.
func (h *Handler) Stats(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	stats, err := h.repo.Stats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("practice stats failed", zap.Error(err))
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, stats)
}
