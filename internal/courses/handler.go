package courses

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pranaflow/backend/internal/middleware"
	"github.com/pranaflow/backend/internal/models"
	"github.com/pranaflow/backend/pkg/response"
	"github.com/pranaflow/backend/pkg/storage"
)

// CreateCourseRequest is the body for POST /courses.
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Style       string `json:"style"`
}

// UpdateCourseRequest is the body for PATCH /courses/:id. Nil fields are left unchanged.
type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Level       *string `json:"level"`
	Style       *string `json:"style"`
	Published   *bool   `json:"published"`
}

// CreateClassRequest is the body for POST /courses/:id/classes.
type CreateClassRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	Position      int    `json:"position"`
	VideoUploadID string `json:"video_upload_id"` // from a prior POST /videos/uploads
}

// UpdateClassRequest is the body for PATCH /classes/:id.
type UpdateClassRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

// EnrollmentCounter reports how many students are enrolled in a course.
// Satisfied by enrollments.Repository; an interface here keeps the import
// direction one-way (enrollments already depends on this package).
type EnrollmentCounter interface {
	CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
}

// Handler handles course and class HTTP endpoints.
type Handler struct {
	repo        *Repository
	s3          *storage.S3 // optional; nil disables cover uploads
	enrollments EnrollmentCounter
	logger      *zap.Logger
}

// NewHandler creates a courses handler.
func NewHandler(repo *Repository, s3 *storage.S3, enrollments EnrollmentCounter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, enrollments: enrollments, logger: logger}
}

// canManage reports whether the caller owns the course or is an admin.
func canManage(c *gin.Context, course *models.Course) bool {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	return role == string(models.RoleAdmin) || course.TeacherID == userID
}

// Create handles POST /courses (teacher role).
func (h *Handler) Create(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	co := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Style:       req.Style,
		TeacherID:   userID,
	}
	if err := h.repo.Create(c.Request.Context(), co); err != nil {
		h.logger.Error("create course failed", zap.Error(err))
		response.Internal(c, "failed to create course")
		return
	}
	response.Created(c, co)
}

// List handles GET /courses. Students see the published catalog; teachers
// see their own courses via ?mine=true.
func (h *Handler) List(c *gin.Context) {
	var teacherID *uuid.UUID
	publishedOnly := true
	if c.Query("mine") == "true" {
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		teacherID = &userID
		publishedOnly = false
	}

	list, err := h.repo.List(c.Request.Context(), teacherID, publishedOnly)
	if err != nil {
		h.logger.Error("list courses failed", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	h.fillCoverURLs(c, list)
	response.OK(c, list)
}

// GetByID handles GET /courses/:id. Returns the course with its classes.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	co, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "course not found")
		return
	}
	if !co.Published && !canManage(c, co) {
		response.NotFound(c, "course not found")
		return
	}
	classes, err := h.repo.ListClasses(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list classes failed", zap.Error(err), zap.String("course_id", id.String()))
		response.Internal(c, "failed to list classes")
		return
	}
	if h.s3 != nil && co.CoverKey != "" {
		if url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), co.CoverKey, h.s3.PresignExpire()); err == nil {
			co.CoverURL = url
		}
	}
	enrollmentCount := 0
	if h.enrollments != nil {
		n, err := h.enrollments.CountByCourse(c.Request.Context(), id)
		if err != nil {
			h.logger.Warn("enrollment count failed", zap.Error(err), zap.String("course_id", id.String()))
		} else {
			enrollmentCount = n
		}
	}
	response.OK(c, gin.H{"course": co, "classes": classes, "enrollment_count": enrollmentCount})
}

// Update handles PATCH /courses/:id (owner or admin).
func (h *Handler) Update(c *gin.Context) {
	co, ok := h.loadManagedCourse(c)
	if !ok {
		return
	}
	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Title != nil {
		co.Title = *req.Title
	}
	if req.Description != nil {
		co.Description = *req.Description
	}
	if req.Level != nil {
		co.Level = *req.Level
	}
	if req.Style != nil {
		co.Style = *req.Style
	}
	if req.Published != nil {
		co.Published = *req.Published
	}
	if err := h.repo.Update(c.Request.Context(), co); err != nil {
		h.logger.Error("update course failed", zap.Error(err), zap.String("course_id", co.ID.String()))
		response.Internal(c, "failed to update course")
		return
	}
	response.OK(c, co)
}

// Delete handles DELETE /courses/:id (owner or admin).
func (h *Handler) Delete(c *gin.Context) {
	co, ok := h.loadManagedCourse(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), co.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "course not found")
			return
		}
		response.Internal(c, "failed to delete course")
		return
	}
	// Best effort: the row is gone either way, so an orphaned cover object
	// only costs storage.
	if h.s3 != nil && co.CoverKey != "" {
		if err := h.s3.DeleteObject(c.Request.Context(), co.CoverKey); err != nil {
			h.logger.Warn("cover cleanup failed", zap.Error(err), zap.String("cover_key", co.CoverKey))
		}
	}
	response.NoContent(c)
}

// UploadCover handles POST /courses/:id/cover (owner or admin). Accepts a
// multipart image and stores it in the covers bucket.
func (h *Handler) UploadCover(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "cover storage not configured")
		return
	}
	co, ok := h.loadManagedCourse(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	defer file.Close()
	if header.Size > storage.MaxCoverFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateCoverFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}

	key := storage.CoverKey(co.ID.String(), header.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), key, contentType, file, header.Size); err != nil {
		h.logger.Error("cover upload failed", zap.Error(err), zap.String("course_id", co.ID.String()))
		response.Internal(c, "failed to upload cover")
		return
	}
	if err := h.repo.SetCover(c.Request.Context(), co.ID, key); err != nil {
		h.logger.Error("set cover failed", zap.Error(err), zap.String("course_id", co.ID.String()))
		response.Internal(c, "failed to save cover")
		return
	}
	response.OK(c, gin.H{"cover_key": key})
}

// CreateClass handles POST /courses/:id/classes (owner or admin).
func (h *Handler) CreateClass(c *gin.Context) {
	co, ok := h.loadManagedCourse(c)
	if !ok {
		return
	}
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cl := &models.Class{
		CourseID:      co.ID,
		Title:         req.Title,
		Description:   req.Description,
		Position:      req.Position,
		VideoUploadID: req.VideoUploadID,
	}
	if err := h.repo.CreateClass(c.Request.Context(), cl); err != nil {
		h.logger.Error("create class failed", zap.Error(err), zap.String("course_id", co.ID.String()))
		response.Internal(c, "failed to create class")
		return
	}
	response.Created(c, cl)
}

// UpdateClass handles PATCH /classes/:id (owner or admin).
func (h *Handler) UpdateClass(c *gin.Context) {
	cl, ok := h.loadManagedClass(c)
	if !ok {
		return
	}
	var req UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Title != nil {
		cl.Title = *req.Title
	}
	if req.Description != nil {
		cl.Description = *req.Description
	}
	if req.Position != nil {
		cl.Position = *req.Position
	}
	if err := h.repo.UpdateClass(c.Request.Context(), cl); err != nil {
		h.logger.Error("update class failed", zap.Error(err), zap.String("class_id", cl.ID.String()))
		response.Internal(c, "failed to update class")
		return
	}
	response.OK(c, cl)
}

// DeleteClass handles DELETE /classes/:id (owner or admin). Removes only
// the local row; the provider asset is deleted via DELETE /videos/assets/:id.
func (h *Handler) DeleteClass(c *gin.Context) {
	cl, ok := h.loadManagedClass(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteClass(c.Request.Context(), cl.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "class not found")
			return
		}
		response.Internal(c, "failed to delete class")
		return
	}
	response.NoContent(c)
}

// loadManagedCourse parses :id, loads the course and checks ownership.
// Writes the error response itself when returning ok=false.
func (h *Handler) loadManagedCourse(c *gin.Context) (*models.Course, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return nil, false
	}
	co, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "course not found")
		return nil, false
	}
	if !canManage(c, co) {
		response.Forbidden(c, "not authorized to manage this course")
		return nil, false
	}
	return co, true
}

func (h *Handler) loadManagedClass(c *gin.Context) (*models.Class, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid class id")
		return nil, false
	}
	cl, err := h.repo.GetClassByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "class not found")
		return nil, false
	}
	co, err := h.repo.GetByID(c.Request.Context(), cl.CourseID)
	if err != nil {
		response.NotFound(c, "course not found")
		return nil, false
	}
	if !canManage(c, co) {
		response.Forbidden(c, "not authorized to manage this class")
		return nil, false
	}
	return cl, true
}

// fillCoverURLs presigns cover keys for API responses.
func (h *Handler) fillCoverURLs(c *gin.Context, list []models.Course) {
	if h.s3 == nil {
		return
	}
	for i := range list {
		if list[i].CoverKey == "" {
			continue
		}
		url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), list[i].CoverKey, h.s3.PresignExpire())
		if err != nil {
			h.logger.Warn("presign cover failed", zap.Error(err), zap.String("course_id", list[i].ID.String()))
			continue
		}
		list[i].CoverURL = url
	}
}
