package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"investcore/internal/bootstrap"
	"investcore/internal/services/investment"
	"investcore/pkg/config"
)

func main() {
	purge := flag.Bool("purge", false, "purge pending accrual run messages and exit")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}
	log := config.InitLogger(settings.Logging, true)

	if !settings.RabbitMQ.Enabled() {
		log.Fatal("RABBITMQ_HOST is required for the worker")
	}

	app, err := bootstrap.New(settings, log, true)
	if err != nil {
		log.Fatal("Failed to initialize: ", err)
	}
	defer app.Close()

	if *purge {
		n, err := config.PurgeQueue(investment.AccrualQueue)
		if err != nil {
			log.Fatal("Failed to purge queue: ", err)
		}
		log.Infof("Purged %d accrual run messages", n)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSrv := serveMetrics(app, log)
	defer metricsSrv.Close()

	msgConsumer, err := config.NewConsumer(investment.AccrualQueue)
	if err != nil {
		log.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	log.Info("Accrual worker started, waiting for messages...")
	err = msgConsumer.Consume(ctx, func(body []byte) error {
		return handleRunMessage(ctx, app.Service, log, body)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal("Consumer stopped unexpectedly: ", err)
	}
	log.Info("Graceful shutdown complete")
}

func serveMetrics(app *bootstrap.App, log *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: ":" + app.Settings.Server.Port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %v", err)
		}
	}()
	return srv
}
