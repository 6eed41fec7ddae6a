package main

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/services/investment"
)

type accrualService interface {
	Today() time.Time
	HasPublisher() bool
	RequestAccrualRun(day time.Time) error
	RunAccrual(ctx context.Context, day time.Time) (*investment.RunReport, error)
}

// accrualJob hands today's run to the worker queue, or runs it in-process without a
// broker. Overlapping triggers are skipped.
type accrualJob struct {
	svc     accrualService
	log     *logrus.Logger
	running sync.Mutex
}

func (j *accrualJob) trigger(ctx context.Context) {
	if !j.running.TryLock() {
		j.log.Warn("> Previous accrual run still in progress, skipping")
		return
	}
	defer j.running.Unlock()

	day := j.svc.Today()
	log := j.log.WithField("date", day.Format(models.DateLayout))

	if j.svc.HasPublisher() {
		if err := j.svc.RequestAccrualRun(day); err != nil {
			log.Errorf("> Failed to queue accrual run: %v", err)
			return
		}
		log.Info("> Accrual run queued")
		return
	}

	report, err := j.svc.RunAccrual(ctx, day)
	if err != nil {
		log.Errorf("> Accrual run failed: %v", err)
		return
	}
	log.Infof("> Accrual run done: %d accrued, %d completed, %d failed", report.Accrued, report.Completed, report.Failed)
}
