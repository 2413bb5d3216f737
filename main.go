package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/controllers"
	"github.com/heartcare-app/heartcare-api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}

// setupRouter builds the HTTP router; limiter may be nil to disable rate limiting on predictions
func setupRouter(cfg *config.Config, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(config.Logger()))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.GET("/", healthCheck)
	router.GET("/test-db", databaseStatus)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/register", controllers.Register)

		api.GET("/user/:id", controllers.GetUser)
		api.PUT("/user/:id", controllers.UpdateUser)
		api.DELETE("/user/:id", controllers.DeleteUser)

		api.GET("/emergency-contacts/:id", controllers.ListEmergencyContacts)
		api.POST("/emergency-contacts/:id", controllers.CreateEmergencyContact)
		api.DELETE("/emergency-contacts/:id/:contact_id", controllers.DeleteEmergencyContact)

		api.GET("/reports/:id", controllers.ListReports)
		api.POST("/reports/:id", controllers.CreateReport)

		predict := []gin.HandlerFunc{controllers.Predict}
		if limiter != nil {
			predict = append([]gin.HandlerFunc{limiter.Middleware()}, predict...)
		}
		api.POST("/predict/:id", predict...)
	}

	return router
}

// healthCheck handles the liveness endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "HeartCare Backend is running!",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		databaseUnavailable(c)
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		databaseUnavailable(c)
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		config.Logger().Errorw("Database ping failed", "error", err)
		databaseUnavailable(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connection successful!",
	})
}

func databaseUnavailable(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_CONNECTION_ERROR",
			"message": "Database connection failed",
		},
	})
}
