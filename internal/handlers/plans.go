package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"investcore/internal/services/investment"
)

// ListActivePlans is the public catalog.
func ListActivePlans(c *gin.Context) {
	plans, err := svc.ListPlans(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"plans": plans})
}

// ListPlans returns every plan, inactive included.
func ListPlans(c *gin.Context) {
	plans, err := svc.ListPlans(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"plans": plans})
}

func GetPlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	plan, err := svc.GetPlan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, plan)
}

func CreatePlan(c *gin.Context) {
	var req investment.CreatePlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	plan, err := svc.CreatePlan(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondStatus(c, http.StatusCreated, plan)
}
