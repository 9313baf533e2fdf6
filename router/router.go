package router

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jlin-dev/feedstream/controllers"
	"github.com/jlin-dev/feedstream/middlewares"
)

func InitRouter() *gin.Engine {
	r := gin.Default()

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:8080"}
	if raw := os.Getenv("FRONTEND_ORIGINS"); raw != "" {
		split := strings.Split(raw, ",")
		allowedOrigins = allowedOrigins[:0]
		for _, v := range split {
			trimmed := strings.TrimSpace(v)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
		if len(allowedOrigins) == 0 {
			allowedOrigins = []string{"*"}
		}
	}

	allowCreds := true
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		allowCreds = false
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCreds,
		MaxAge:           12 * time.Hour,
	}))

	// Public health endpoint for liveness/readiness checks
	r.GET("/api/health", controllers.Health)

	api := r.Group("/api")
	{
		api.POST("/users", controllers.CreateUser)
		api.POST("/feeds/subscribe", controllers.Subscribe)

		users := api.Group("/users/:userId")
		users.Use(middlewares.ResolveUser())
		{
			users.POST("/preferences", controllers.UpdatePreferences)
		}

		feeds := api.Group("/feeds/:userId")
		feeds.Use(middlewares.ResolveUser())
		{
			feeds.GET("", controllers.GetTimeline)
			feeds.GET("/refresh", controllers.RefreshFeeds)
			feeds.POST("/unsubscribe", controllers.Unsubscribe)
			feeds.POST("/click", controllers.ClickItem)
		}
	}

	return r
}
