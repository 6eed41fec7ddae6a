package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investcore/internal/middleware"
	"investcore/internal/models"
	"investcore/internal/services/investment"
)

// OverrideRequest is the PATCH body. Absent fields are left unchanged.
type OverrideRequest struct {
	StartDate          *string          `json:"startDate"`
	TotalProfitsEarned *decimal.Decimal `json:"totalProfitsEarned"`
}

type PauseRequest struct {
	Reason string `json:"reason"`
}

// ListInvestments is the admin listing with user and plan embedded.
func ListInvestments(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	invs, err := svc.ListInvestments(c.Request.Context(), investment.ListInvestmentsInput{
		Status: models.InvestmentStatus(c.Query("status")),
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"investments": invs})
}

func GetInvestment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := svc.GetInvestment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, inv)
}

func CreateInvestment(c *gin.Context) {
	var req investment.CreateInvestmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	inv, err := svc.CreateInvestment(c.Request.Context(), req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondStatus(c, http.StatusCreated, inv)
}

// OverrideInvestment applies the admin correction of startDate and totalProfitsEarned.
func OverrideInvestment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	in := investment.OverrideInput{TotalProfitsEarned: req.TotalProfitsEarned}
	if req.StartDate != nil {
		start, err := parseRequestDate(*req.StartDate)
		if err != nil {
			respondFail(c, http.StatusBadRequest, string(investment.KindInvalidDate), "startDate must be YYYY-MM-DD")
			return
		}
		in.StartDate = &start
	}

	result, err := svc.Override(c.Request.Context(), id, in, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func ActivateInvestment(c *gin.Context) {
	runTransition(c, func(id uint, actor string) (*models.UserInvestment, error) {
		return svc.Activate(c.Request.Context(), id, actor)
	})
}

func PauseInvestment(c *gin.Context) {
	var req PauseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	runTransition(c, func(id uint, actor string) (*models.UserInvestment, error) {
		return svc.Pause(c.Request.Context(), id, strings.TrimSpace(req.Reason), actor)
	})
}

func ResumeInvestment(c *gin.Context) {
	runTransition(c, func(id uint, actor string) (*models.UserInvestment, error) {
		return svc.Resume(c.Request.Context(), id, actor)
	})
}

func CompleteInvestment(c *gin.Context) {
	runTransition(c, func(id uint, actor string) (*models.UserInvestment, error) {
		return svc.Complete(c.Request.Context(), id, actor)
	})
}

// DeleteInvestment tombstones an investment. The client confirms before calling, so
// confirm defaults to true; ?confirm=false is rejected.
func DeleteInvestment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	confirm, err := strconv.ParseBool(c.DefaultQuery("confirm", "true"))
	if err != nil {
		badRequest(c, "confirm must be a boolean")
		return
	}
	if err := svc.Delete(c.Request.Context(), id, confirm, middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"id": id, "deleted": true})
}

func ListInvestmentEntries(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entries, err := svc.ListEntries(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"entries": entries})
}

func ListInvestmentAudits(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	audits, err := svc.ListAudits(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"audits": audits})
}

func ListInvestmentEvents(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	events, err := svc.ListEvents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"events": events})
}

func runTransition(c *gin.Context, fn func(id uint, actor string) (*models.UserInvestment, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := fn(id, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, inv)
}

// parseRequestDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func parseRequestDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := models.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return models.DateOf(t, time.UTC), nil
}
