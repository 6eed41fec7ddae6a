package bootstrap

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcore/internal/repository"
	"investcore/pkg/config"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewMemoryApp(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Database.Driver = DriverMemory
	settings.RabbitMQ.Host = "" // no broker

	app, err := New(settings, quietLogger(), true)
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &repository.MemoryStore{}, app.Store)
	assert.False(t, app.HasBroker())
	assert.False(t, app.Service.HasPublisher())

	report, err := app.Service.RunAccrual(context.Background(), app.Service.Today())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["investcore_accrual_runs_total"])
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Database.Driver = "sqlite"

	_, err := New(settings, quietLogger(), false)
	assert.Error(t, err)
}
