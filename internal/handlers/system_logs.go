package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"investcore/internal/repository"
)

// ListSystemLogs returns paginated system logs filtered by level, module and investment.
func ListSystemLogs(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := 10
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	filter := repository.SystemLogFilter{
		Level:    c.Query("level"),
		Module:   c.Query("module"),
		Page:     page,
		PageSize: pageSize,
	}
	if iid := c.Query("investment_id"); iid != "" {
		if parsed, err := strconv.ParseUint(iid, 10, 64); err == nil {
			filter.InvestmentID = uint(parsed)
		}
	}

	logs, total, err := svc.ListSystemLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	respondOK(c, gin.H{
		"logs": logs,
		"pagination": gin.H{
			"currentPage": page,
			"pageSize":    pageSize,
			"totalPages":  totalPages,
			"totalCount":  total,
			"hasNext":     page < int(totalPages),
			"hasPrev":     page > 1,
		},
	})
}
