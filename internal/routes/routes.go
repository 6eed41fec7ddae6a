package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"investcore/internal/middleware"
)

// Options carries the per-deployment router settings.
type Options struct {
	AllowedOrigins []string
	RateLimit      middleware.RateLimiterConfig
	JWT            *middleware.JWTManager
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Any("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	r.Use(corsMiddleware(opts.AllowedOrigins))
	if opts.RateLimit.RequestsPerSecond > 0 {
		r.Use(middleware.RateLimiterMiddleware(opts.RateLimit))
	}

	SetupAuthRoutes(r, opts.JWT)
	SetupPlanRoutes(r)
	SetupUserRoutes(r, opts.JWT)
	SetupAdminRoutes(r, opts.JWT)

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		// Cookie auth needs credentials on cross-origin requests.
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Retry-After")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
