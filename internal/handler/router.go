package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/packlane/packlane/internal/middleware"
)

type RouterDeps struct {
	Shares    *ShareHandler
	Files     *FileHandler
	JWTSecret []byte
	// PublicRateLimitWindow throttles anonymous traffic on the public
	// share routes. Zero disables throttling.
	PublicRateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/lists/:id/share", deps.Shares.Create)
	authGroup.GET("/lists/:id/share", deps.Shares.GetActive)
	authGroup.DELETE("/lists/:id/share", deps.Shares.Revoke)

	// The copy endpoint is public-path but requires an authenticated
	// acting user as the destination owner.
	authGroup.POST("/public/share/:token/copy", deps.Shares.PublicCopy)

	authGroup.POST("/files/upload", deps.Files.Upload)

	publicGroup := api.Group("/public")
	publicGroup.Use(middleware.RateLimit(deps.PublicRateLimitWindow))
	publicGroup.GET("/share/:token/full", deps.Shares.PublicGet)
	publicGroup.GET("/share/:token/csv", deps.Shares.PublicCSV)

	api.GET("/files/:key", deps.Files.Get)
}
