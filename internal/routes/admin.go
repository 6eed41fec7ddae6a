package routes

import (
	"github.com/gin-gonic/gin"

	"investcore/internal/handlers"
	"investcore/internal/middleware"
)

// SetupAdminRoutes sets up plan management, investment lifecycle, accrual runs and logs
func SetupAdminRoutes(r *gin.Engine, jwt *middleware.JWTManager) {
	admin := r.Group("/admin", middleware.RequireAuth(jwt), middleware.RequireRole("admin"))

	plans := admin.Group("/plans")
	{
		plans.GET("", handlers.ListPlans)
		plans.POST("", handlers.CreatePlan)
	}

	investments := admin.Group("/investments")
	{
		investments.GET("", handlers.ListInvestments)
		investments.POST("", handlers.CreateInvestment)
		investments.GET("/:id", handlers.GetInvestment)
		investments.PATCH("/:id", handlers.OverrideInvestment)
		investments.DELETE("/:id", handlers.DeleteInvestment)
		investments.PUT("/:id/activate", handlers.ActivateInvestment)
		investments.PUT("/:id/pause", handlers.PauseInvestment)
		investments.PUT("/:id/resume", handlers.ResumeInvestment)
		investments.PUT("/:id/complete", handlers.CompleteInvestment)
		investments.GET("/:id/entries", handlers.ListInvestmentEntries)
		investments.GET("/:id/audits", handlers.ListInvestmentAudits)
		investments.GET("/:id/events", handlers.ListInvestmentEvents)
	}

	admin.POST("/accrual/run", handlers.RunAccrual)
	admin.GET("/system-logs", handlers.ListSystemLogs)
}
