package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"investcore/internal/middleware"
	"investcore/internal/models"
	"investcore/internal/services/investment"
)

type RunAccrualRequest struct {
	Date string `json:"date"`
}

// RunAccrual queues an engine run on the worker queue, or runs it inline when no broker
// is attached or ?sync=true is given.
func RunAccrual(c *gin.Context) {
	var req RunAccrualRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	day := svc.Today()
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			respondFail(c, http.StatusBadRequest, string(investment.KindInvalidDate), "date must be YYYY-MM-DD")
			return
		}
		if parsed.After(day) {
			respondFail(c, http.StatusBadRequest, string(investment.KindInvalidDate), "cannot accrue a future date")
			return
		}
		day = parsed
	}

	sync, _ := strconv.ParseBool(c.Query("sync"))
	log := logrus.WithFields(logrus.Fields{"date": day.Format(models.DateLayout), "actor": middleware.CurrentActor(c)})

	if svc.HasPublisher() && !sync {
		if err := svc.RequestAccrualRun(day); err != nil {
			respondError(c, err)
			return
		}
		log.Info("Accrual run queued")
		respondStatus(c, http.StatusAccepted, gin.H{"queued": true, "date": day.Format(models.DateLayout)})
		return
	}

	start := time.Now()
	report, err := svc.RunAccrual(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	log.WithField("elapsed", time.Since(start).String()).Info("Accrual run finished inline")
	respondOK(c, report)
}
