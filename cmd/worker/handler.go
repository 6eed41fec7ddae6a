package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/services/investment"
)

type accrualRunner interface {
	RunAccrual(ctx context.Context, day time.Time) (*investment.RunReport, error)
}

// handleRunMessage runs the engine for one queued run. Malformed messages are dropped;
// an engine error requeues the message.
func handleRunMessage(ctx context.Context, runner accrualRunner, log *logrus.Logger, body []byte) error {
	var msg investment.AccrualRunMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Errorf("Dropping malformed accrual message: %v", err)
		return nil
	}
	if msg.Action != investment.ActionRunAccrual {
		log.Warnf("Dropping message with unknown action %q", msg.Action)
		return nil
	}
	day, err := models.ParseDate(msg.Date)
	if err != nil {
		log.Errorf("Dropping accrual message with bad date %q: %v", msg.Date, err)
		return nil
	}

	report, err := runner.RunAccrual(ctx, day)
	if err != nil {
		log.WithField("date", msg.Date).Errorf("Accrual run failed: %v", err)
		return err
	}
	log.WithFields(logrus.Fields{
		"date":      report.Date,
		"scanned":   report.Scanned,
		"accrued":   report.Accrued,
		"completed": report.Completed,
		"failed":    report.Failed,
	}).Info("Accrual run processed")
	return nil
}
