package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"investcore/internal/middleware"
	"investcore/internal/services/investment"
)

// GetUserInvestments returns the caller's investments with the portfolio summary.
func GetUserInvestments(c *gin.Context) {
	result, err := svc.UserInvestments(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// GetDashboardProfits returns the zero-filled daily profit series for ?days=N.
func GetDashboardProfits(c *gin.Context) {
	days, ok := parseDays(c)
	if !ok {
		return
	}
	history, err := svc.ProfitHistory(c.Request.Context(), middleware.CurrentUserID(c), days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, history)
}

// GetDashboardProfitChart renders the same series as a PNG. A line needs two points, so
// days=1 draws yesterday and today.
func GetDashboardProfitChart(c *gin.Context) {
	days, ok := parseDays(c)
	if !ok {
		return
	}
	if days < 2 {
		days = 2
	}
	history, err := svc.ProfitHistory(c.Request.Context(), middleware.CurrentUserID(c), days)
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := investment.RenderProfitChart(history.ChartData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func parseDays(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return investment.DefaultHistoryDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > investment.MaxHistoryDays {
		badRequest(c, "days must be an integer between 1 and "+strconv.Itoa(investment.MaxHistoryDays))
		return 0, false
	}
	return days, true
}
