package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jordaandigi/pdflingo/api/handlers"
	"github.com/jordaandigi/pdflingo/api/middleware"
	"github.com/jordaandigi/pdflingo/internal/auth"
)

// SetupRoutes wires every endpoint. Everything except auth and the
// health check requires a bearer token.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, authService auth.Service) {
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.SignUp)
		authGroup.POST("/signin", h.Auth.SignIn)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(authService))
	{
		protected.POST("/auth/signout", h.Auth.SignOut)

		docs := protected.Group("/documents")
		{
			docs.POST("", h.Document.Upload)
			docs.GET("/session", h.Document.Session)
			docs.GET("/download", h.Document.Download)
			docs.GET("/history", h.Document.History)
		}

		generations := protected.Group("/generations")
		{
			generations.PUT("/toggles", h.Generation.SetToggles)
			generations.GET("/summary", h.Generation.GetSummary)
			generations.GET("/insights", h.Generation.GetInsights)
		}

		chatGroup := protected.Group("/chat")
		{
			chatGroup.POST("/open", h.Chat.Open)
			chatGroup.POST("/messages", h.Chat.Send)
			chatGroup.GET("/messages", h.Chat.History)
		}
	}
}
