// Package bootstrap assembles the store, broker and investment service shared by the
// api, worker and scheduler binaries.
package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"investcore/internal/repository"
	"investcore/internal/services/investment"
	"investcore/pkg/config"
)

const DriverMemory = "memory"

type App struct {
	Settings *config.Settings
	Log      *logrus.Logger
	Store    repository.Store
	Service  *investment.Service
	Registry *prometheus.Registry

	publisher *config.Publisher
}

// New opens the datastore and, when configured and useBroker is set, RabbitMQ.
func New(settings *config.Settings, log *logrus.Logger, useBroker bool) (*App, error) {
	loc, err := settings.Accrual.Location()
	if err != nil {
		return nil, fmt.Errorf("accrual timezone: %w", err)
	}

	app := &App{
		Settings: settings,
		Log:      log,
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	switch settings.Database.Driver {
	case DriverMemory:
		log.Warn("Using in-memory store, data is lost on exit")
		app.Store = repository.NewMemoryStore()
	case "", "postgres":
		config.InitDB(settings.Database)
		app.Store = repository.NewGormStore(config.DB, log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", settings.Database.Driver)
	}

	opts := investment.Options{
		Location:  loc,
		Workers:   settings.Accrual.Workers,
		DBTimeout: settings.Database.GetTimeout(),
		Logger:    log,
		Metrics:   investment.NewMetrics(app.Registry),
	}

	if useBroker && settings.RabbitMQ.Enabled() {
		config.InitRabbitMQ(settings.RabbitMQ)
		app.publisher, err = config.NewPublisher()
		if err != nil {
			config.CloseRabbitMQ()
			return nil, fmt.Errorf("create publisher: %w", err)
		}
		opts.Publisher = app.publisher
		log.Info("RabbitMQ initialized successfully")
	} else {
		log.Info("RabbitMQ not configured, skipping initialization")
	}

	app.Service = investment.NewService(app.Store, opts)
	return app, nil
}

// HasBroker reports whether a RabbitMQ connection is open.
func (a *App) HasBroker() bool {
	return a.publisher != nil
}

func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	config.CloseRabbitMQ()
	if config.DB != nil {
		if sqlDB, err := config.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
