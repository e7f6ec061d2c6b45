package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boffin-lk/institute-service/internal/config"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/utils"
)

type HandlerManager struct {
	serviceManager      services.ServiceManager
	courseHandler       *CourseHandler
	categoryHandler     *CategoryHandler
	registrationHandler *RegistrationHandler
	siteContentHandler  *SiteContentHandler
	dashboardHandler    *DashboardHandler
	userHandler         *UserHandler
	authHandler         *AuthHandler
	authMiddleware      *SessionAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authConfig config.AuthConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:      serviceManager,
		courseHandler:       NewCourseHandler(serviceManager.Course(), logger),
		categoryHandler:     NewCategoryHandler(serviceManager.Category(), logger),
		registrationHandler: NewRegistrationHandler(serviceManager.Registration(), logger),
		siteContentHandler:  NewSiteContentHandler(serviceManager.Testimonial(), serviceManager.Media(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		authHandler:         NewAuthHandler(serviceManager.Auth(), authConfig, logger),
		authMiddleware:      NewSessionAuthMiddleware(serviceManager.Auth(), authConfig.SessionCookieName, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	// Sign-in flow
	auth := router.Group("/auth")
	{
		auth.GET("/signin", hm.authHandler.SignIn)
		auth.GET("/callback", hm.authHandler.Callback)
		auth.POST("/signout", hm.authHandler.SignOut)
		auth.GET("/session", hm.authMiddleware.AuthMiddleware(), hm.authHandler.Session)
	}

	v1 := router.Group("/api/v1")
	{
		// Public site
		v1.GET("/courses", hm.courseHandler.ListPublishedCourses)
		v1.GET("/courses/:slug", hm.courseHandler.GetPublishedCourse)
		v1.GET("/categories", hm.categoryHandler.ListCategories)
		v1.GET("/testimonials", hm.siteContentHandler.ListPublicTestimonials)
		v1.GET("/media/:key", hm.siteContentHandler.GetMedia)
		v1.POST("/registrations", hm.registrationHandler.Register)
	}

	// Admin routes - signed-in admins only
	admin := v1.Group("/admin")
	admin.Use(hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
	{
		courses := admin.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.POST("", hm.courseHandler.CreateCourse)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", hm.courseHandler.SyncCourse)
			courses.PATCH("/:id/status", hm.courseHandler.UpdateCourseStatus)
			courses.DELETE("/:id", hm.courseHandler.DeleteCourse)
		}

		categories := admin.Group("/categories")
		{
			categories.GET("", hm.categoryHandler.ListCategories)
			categories.POST("", hm.categoryHandler.CreateCategory)
			categories.GET("/:id", hm.categoryHandler.GetCategory)
			categories.PUT("/:id", hm.categoryHandler.UpdateCategory)
			categories.DELETE("/:id", hm.categoryHandler.DeleteCategory)
		}

		registrations := admin.Group("/registrations")
		{
			registrations.GET("", hm.registrationHandler.ListRegistrations)
			registrations.GET("/:id", hm.registrationHandler.GetRegistration)
			registrations.PATCH("/:id/status", hm.registrationHandler.UpdateRegistrationStatus)
		}

		testimonials := admin.Group("/testimonials")
		{
			testimonials.GET("", hm.siteContentHandler.ListTestimonials)
			testimonials.POST("", hm.siteContentHandler.CreateTestimonial)
			testimonials.GET("/:id", hm.siteContentHandler.GetTestimonial)
			testimonials.PATCH("/:id", hm.siteContentHandler.UpdateTestimonial)
			testimonials.DELETE("/:id", hm.siteContentHandler.DeleteTestimonial)
		}

		media := admin.Group("/media")
		{
			media.GET("", hm.siteContentHandler.ListMedia)
			media.PUT("/:key", hm.siteContentHandler.UpsertMedia)
			media.DELETE("/:key", hm.siteContentHandler.DeleteMedia)
		}

		users := admin.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		admin.GET("/dashboard/stats", hm.dashboardHandler.GetDashboardStats)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "institute-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "institute-service",
	})
}
