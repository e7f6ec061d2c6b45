package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/utils"
)

type RegistrationHandler struct {
	BaseHandler
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService, logger utils.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		BaseHandler:         NewBaseHandler(logger),
		registrationService: registrationService,
	}
}

// Register is the public course registration form
// @Summary Register for a course
// @Tags registrations
// @Accept json
// @Produce json
// @Param registration body services.CreateRegistrationRequest true "Registration form"
// @Success 201 {object} services.RegistrationResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Course not found or not open"
// @Failure 409 {object} ErrorResponse "Already registered"
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req services.CreateRegistrationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Registration submitted", "course_id", req.CourseID)

	result, err := h.registrationService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListRegistrations lists registrations
// @Param status query string false "pending, confirmed or completed"
// @Param course_id query int false "Course"
// @Param user_id query int false "User"
// @Param from query string false "Registered on or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Registered before (RFC3339 or YYYY-MM-DD)"
// @Router /admin/registrations [get]
func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	limit, offset := pagination(c)
	filters := repositories.RegistrationFilters{
		CourseID:  optionalUintQuery(c, "course_id"),
		UserID:    optionalUintQuery(c, "user_id"),
		DateFrom:  optionalTimeQuery(c, "from"),
		DateTo:    optionalTimeQuery(c, "to"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := models.RegistrationStatus(c.Query("status")); status.IsValid() {
		filters.Status = &status
	}

	result, err := h.registrationService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(result.Registrations, result.Size, result.Total, result.Page, normalizedSize(filters.Limit)))
}

// @Router /admin/registrations/{id} [get]
func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	registration, err := h.registrationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, registration)
}

// UpdateRegistrationStatus confirms or completes a registration
// @Router /admin/registrations/{id}/status [patch]
func (h *RegistrationHandler) UpdateRegistrationStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateRegistrationStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	registration, err := h.registrationService.UpdateStatus(c.Request.Context(), id, &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, registration)
}

func optionalTimeQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
