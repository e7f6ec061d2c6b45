package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// ===== PUBLIC =====

// ListPublishedCourses lists published courses for the public site
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param category query string false "Category slug"
// @Param search query string false "Title or short description"
// @Param featured query bool false "Featured only"
// @Success 200 {object} models.PaginatedResponse
// @Router /courses [get]
func (h *CourseHandler) ListPublishedCourses(c *gin.Context) {
	filters := h.parseCourseFilters(c)

	result, err := h.courseService.ListPublished(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(result.Courses, result.Size, result.Total, result.Page, normalizedSize(filters.Limit)))
}

// GetPublishedCourse returns a published course with its modules and topics
// @Summary Get course by slug
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/{slug} [get]
func (h *CourseHandler) GetPublishedCourse(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid slug"})
		return
	}

	course, err := h.courseService.GetPublishedBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ===== ADMIN =====

// CreateCourse creates a new course
// @Summary Create course
// @Tags admin-courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// ListCourses lists courses of any status
// @Router /admin/courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	filters := h.parseCourseFilters(c)
	if status := models.CourseStatus(c.Query("status")); status.IsValid() {
		filters.Status = &status
	}

	result, err := h.courseService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(result.Courses, result.Size, result.Total, result.Page, normalizedSize(filters.Limit)))
}

// GetCourse returns a course of any status with its content
// @Router /admin/courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// SyncCourse replaces the course fields and its module/topic tree
// @Summary Save course editor content
// @Description Modules and topics are matched by id. Omitted ones are deleted, ones without id are created, array order becomes display order.
// @Tags admin-courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param course body services.SyncCourseContentRequest true "Full course tree"
// @Success 200 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/courses/{id} [put]
func (h *CourseHandler) SyncCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SyncCourseContentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Saving course content", "course_id", id, "modules", len(req.Modules))

	course, err := h.courseService.SyncContent(c.Request.Context(), id, &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourseStatus moves a course between draft, published and archived
// @Router /admin/courses/{id}/status [patch]
func (h *CourseHandler) UpdateCourseStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCourseStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	change, err := h.courseService.UpdateStatus(c.Request.Context(), id, &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

// DeleteCourse deletes a course and its content
// @Router /admin/courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted successfully"})
}

func (h *CourseHandler) parseCourseFilters(c *gin.Context) repositories.CourseFilters {
	limit, offset := pagination(c)
	filters := repositories.CourseFilters{
		CategoryID: optionalUintQuery(c, "category_id"),
		IsFeatured: optionalBoolQuery(c, "featured"),
		Search:     strings.TrimSpace(c.Query("search")),
		Limit:      limit,
		Offset:     offset,
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if slug := strings.TrimSpace(c.Query("category")); slug != "" {
		filters.CategorySlug = &slug
	}
	return filters
}

// normalizedSize mirrors the repository's page size clamp for the response envelope.
func normalizedSize(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	}
	return limit
}
