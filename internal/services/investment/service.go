package investment

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/repository"
)

const (
	// EventsQueue receives lifecycle transitions after they commit.
	EventsQueue = "investment_events"
	// AccrualQueue receives accrual run requests for the worker.
	AccrualQueue = "accrual_runs"

	defaultWorkers   = 8
	defaultDBTimeout = 10 * time.Second
)

// Publisher is satisfied by config.Publisher.
type Publisher interface {
	Publish(queueName string, message interface{}) error
}

type Options struct {
	// Location decides which calendar day "today" is. Defaults to UTC.
	Location *time.Location
	// Workers bounds how many investments are accrued concurrently.
	Workers   int
	DBTimeout time.Duration
	Now       func() time.Time
	Publisher Publisher
	Logger    *logrus.Logger
	Metrics   *Metrics
}

// Service implements plans, lifecycle, overrides, accrual and the read models.
type Service struct {
	store     repository.Store
	loc       *time.Location
	workers   int
	dbTimeout time.Duration
	now       func() time.Time
	publisher Publisher
	log       *logrus.Logger
	metrics   *Metrics
}

func NewService(store repository.Store, opts Options) *Service {
	s := &Service{
		store:     store,
		loc:       opts.Location,
		workers:   opts.Workers,
		dbTimeout: opts.DBTimeout,
		now:       opts.Now,
		publisher: opts.Publisher,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.workers < 1 {
		s.workers = defaultWorkers
	}
	if s.dbTimeout <= 0 {
		s.dbTimeout = defaultDBTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Today is the current calendar day in the service location.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now(), s.loc)
}

// Location returns the timezone used to decide calendar days.
func (s *Service) Location() *time.Location {
	return s.loc
}

// HasPublisher reports whether a message broker is attached.
func (s *Service) HasPublisher() bool {
	return s.publisher != nil
}

// RequestAccrualRun enqueues an accrual run for day on the worker queue.
func (s *Service) RequestAccrualRun(day time.Time) error {
	if s.publisher == nil {
		return newError(KindValidation, "no message broker configured")
	}
	msg := AccrualRunMessage{Action: ActionRunAccrual, Date: day.Format(models.DateLayout)}
	if err := s.publisher.Publish(AccrualQueue, msg); err != nil {
		return &Error{Kind: KindPersistenceFailure, Message: "publish accrual run", Err: err}
	}
	return nil
}

func (s *Service) dbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.dbTimeout)
}

const ActionRunAccrual = "run_accrual"

// AccrualRunMessage is the body published to AccrualQueue.
type AccrualRunMessage struct {
	Action string `json:"action"`
	Date   string `json:"date"`
}

// EventMessage is the body published to EventsQueue.
type EventMessage struct {
	Action       string                  `json:"action"`
	InvestmentID uint                    `json:"investmentId"`
	Reference    string                  `json:"reference"`
	UserID       uint                    `json:"userId"`
	FromStatus   models.InvestmentStatus `json:"fromStatus"`
	ToStatus     models.InvestmentStatus `json:"toStatus"`
	Reason       string                  `json:"reason,omitempty"`
	Actor        string                  `json:"actor"`
	OccurredAt   time.Time               `json:"occurredAt"`
}

func (s *Service) publishEvent(msg EventMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(EventsQueue, msg); err != nil {
		s.log.WithFields(logrus.Fields{
			"investment_id": msg.InvestmentID,
			"action":        msg.Action,
		}).Warnf("Failed to publish investment event: %v", err)
	}
}
