package main

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"investcore/internal/bootstrap"
	"investcore/internal/handlers"
	"investcore/internal/middleware"
	"investcore/internal/routes"
	"investcore/pkg/config"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}
	log := config.InitLogger(settings.Logging, true)

	app, err := bootstrap.New(settings, log, true)
	if err != nil {
		log.Fatal("Failed to initialize: ", err)
	}
	defer app.Close()

	tokens := middleware.NewJWTManager(settings.Auth.JWTSecret, settings.Auth.GetTokenExpiry())
	handlers.Setup(app.Service, tokens, settings.Auth.CookieSecure)

	// Set up router
	r := routes.SetupRouter(routes.Options{
		AllowedOrigins: settings.Server.AllowedOrigins,
		RateLimit: middleware.RateLimiterConfig{
			RequestsPerSecond: settings.Server.RateLimitRPS,
			Burst:             settings.Server.RateLimitBurst,
		},
		JWT:     tokens,
		Metrics: promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}),
	})

	log.Infof("investcore api listening on :%s", settings.Server.Port)
	if err := r.Run(":" + settings.Server.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
