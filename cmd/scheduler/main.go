package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"investcore/internal/bootstrap"
	"investcore/pkg/config"
)

func main() {
	runNow := flag.Bool("now", false, "trigger one accrual run at startup")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}
	log := config.InitLogger(settings.Logging, false)
	log.Info("> Initializing accrual scheduler...")

	app, err := bootstrap.New(settings, log, true)
	if err != nil {
		log.Fatal("> Failed to initialize: ", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := &accrualJob{svc: app.Service, log: log}
	if *runNow {
		job.trigger(ctx)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(app.Service.Location()))
	_, err = c.AddFunc(settings.Accrual.Cron, func() { job.trigger(ctx) })
	if err != nil {
		log.Fatalf("> Failed to add cron job: %v", err)
	}

	log.Infof("> Accrual job scheduled with %q (%s)", settings.Accrual.Cron, app.Service.Location())
	c.Start()

	<-ctx.Done()
	log.Info("> Stopping scheduler, waiting for running jobs...")
	<-c.Stop().Done()
}
