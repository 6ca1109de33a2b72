package router

import (
	"net/http"

	"github.com/cuongbtq/render-jobs/internal/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "render-client",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/validate", jobHandler.ValidateSpec)

		wallet := v1.Group("/wallet")
		{
			wallet.GET("", jobHandler.GetWallet)
			wallet.POST("/connect", jobHandler.ConnectWallet)
			wallet.POST("/disconnect", jobHandler.DisconnectWallet)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.SubmitJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.POST("/refresh", jobHandler.RefreshAll)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.GET("/:job_id/content", jobHandler.GetJobContent)
			jobs.POST("/:job_id/refresh", jobHandler.RefreshJob)
			jobs.POST("/:job_id/result", jobHandler.FetchResult)
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)
		}
	}

	return r
}
