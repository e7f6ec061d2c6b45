package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/utils"
)

// SiteContentHandler serves testimonials and media placeholder slots.
type SiteContentHandler struct {
	BaseHandler
	testimonialService services.TestimonialService
	mediaService       services.MediaService
}

func NewSiteContentHandler(testimonialService services.TestimonialService, mediaService services.MediaService, logger utils.Logger) *SiteContentHandler {
	return &SiteContentHandler{
		BaseHandler:        NewBaseHandler(logger),
		testimonialService: testimonialService,
		mediaService:       mediaService,
	}
}

// ===== TESTIMONIALS =====

// ListPublicTestimonials returns active testimonials, featured first
// @Param featured query bool false "Featured only"
// @Router /testimonials [get]
func (h *SiteContentHandler) ListPublicTestimonials(c *gin.Context) {
	limit, offset := pagination(c)
	featured := c.Query("featured") == "true"

	result, err := h.testimonialService.ListPublic(c.Request.Context(), featured, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(result.Testimonials, result.Size, result.Total, result.Page, normalizedSize(limit)))
}

// @Router /admin/testimonials [get]
func (h *SiteContentHandler) ListTestimonials(c *gin.Context) {
	limit, offset := pagination(c)
	filters := repositories.TestimonialFilters{
		ActiveOnly:   c.Query("active") == "true",
		FeaturedOnly: c.Query("featured") == "true",
		Limit:        limit,
		Offset:       offset,
	}

	result, err := h.testimonialService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(result.Testimonials, result.Size, result.Total, result.Page, normalizedSize(limit)))
}

// @Router /admin/testimonials/{id} [get]
func (h *SiteContentHandler) GetTestimonial(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	testimonial, err := h.testimonialService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// @Router /admin/testimonials [post]
func (h *SiteContentHandler) CreateTestimonial(c *gin.Context) {
	var req services.CreateTestimonialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	testimonial, err := h.testimonialService.Create(c.Request.Context(), &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, testimonial)
}

// UpdateTestimonial edits content or moderation flags
// @Router /admin/testimonials/{id} [patch]
func (h *SiteContentHandler) UpdateTestimonial(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateTestimonialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	testimonial, err := h.testimonialService.Update(c.Request.Context(), id, &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// @Router /admin/testimonials/{id} [delete]
func (h *SiteContentHandler) DeleteTestimonial(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.testimonialService.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Testimonial deleted successfully"})
}

// ===== MEDIA =====

// GetMedia resolves a placeholder slot for the public site
// @Router /media/{key} [get]
func (h *SiteContentHandler) GetMedia(c *gin.Context) {
	asset, err := h.mediaService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// @Router /admin/media [get]
func (h *SiteContentHandler) ListMedia(c *gin.Context) {
	assets, err := h.mediaService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// UpsertMedia points a slot at a url, creating the slot on first use
// @Router /admin/media/{key} [put]
func (h *SiteContentHandler) UpsertMedia(c *gin.Context) {
	var req services.UpsertMediaRequest
	if !h.bindJSON(c, &req) {
		return
	}

	asset, err := h.mediaService.Upsert(c.Request.Context(), c.Param("key"), &req, actorID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// @Router /admin/media/{key} [delete]
func (h *SiteContentHandler) DeleteMedia(c *gin.Context) {
	if err := h.mediaService.Delete(c.Request.Context(), c.Param("key"), actorID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Media slot removed"})
}
