package routes

import (
	"github.com/gin-gonic/gin"

	"investcore/internal/handlers"
	"investcore/internal/middleware"
)

// SetupAuthRoutes sets up cookie session login and logout
func SetupAuthRoutes(r *gin.Engine, jwt *middleware.JWTManager) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", handlers.Login)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/me", middleware.RequireAuth(jwt), handlers.Me)
	}
}

// SetupPlanRoutes sets up the public plan catalog
func SetupPlanRoutes(r *gin.Engine) {
	plans := r.Group("/api/plans")
	{
		plans.GET("", handlers.ListActivePlans)
		plans.GET("/:id", handlers.GetPlan)
	}
}

// SetupUserRoutes sets up the authenticated user's portfolio and dashboard
func SetupUserRoutes(r *gin.Engine, jwt *middleware.JWTManager) {
	user := r.Group("/api/user", middleware.RequireAuth(jwt))
	{
		user.GET("/investments", handlers.GetUserInvestments)
		user.GET("/dashboard/profits", handlers.GetDashboardProfits)
		user.GET("/dashboard/profits/chart.png", handlers.GetDashboardProfitChart)
	}
}
