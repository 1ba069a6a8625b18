package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verikyc/backend/internal/handlers"
	"github.com/verikyc/backend/internal/middleware"
)

// SetupRouter configures the gin engine with all routes and middleware
func SetupRouter(kycHandler *handlers.KYCHandler, frontendURL string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{frontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	rateLimiter := middleware.NewRateLimiter(20, 40)
	router.Use(rateLimiter.Middleware())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	kyc := api.Group("/kyc")
	kyc.Use(middleware.AuthMiddleware())
	{
		// Subject-facing submission; any authenticated caller.
		kyc.POST("/:subjectType/submit", kycHandler.SubmitKYC)

		// Reviewer surface.
		admin := kyc.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/pending", kycHandler.GetPendingSummary)
			admin.GET("/:subjectType", kycHandler.ListKYC)
			admin.GET("/approved/:subjectType", kycHandler.ListApprovedKYC)
			admin.POST("/:subjectType/approve", kycHandler.ApproveKYC)
			admin.POST("/:subjectType/reject", kycHandler.RejectKYC)
			admin.GET("/:subjectType/records/:id", kycHandler.GetKYCByID)
			admin.GET("/:subjectType/subjects/:subjectId/status", kycHandler.GetSubjectStatus)
		}
	}

	return router
}
