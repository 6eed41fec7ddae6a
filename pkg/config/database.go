package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"investcore/internal/models"
)

var DB *gorm.DB

// InitDB opens the postgres connection, applies pool settings and auto-migrates models.
func InitDB(s DatabaseSettings) {
	db, err := OpenDB(s.DSN())
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	DB = db

	if err := AutoMigrate(DB); err != nil {
		logrus.Fatal("Failed to migrate database: ", err)
	}
}

// OpenDB connects to postgres with the service pool settings.
func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// AutoMigrate creates or updates the tables owned by investcore.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.InvestmentPlan{},
		&models.UserInvestment{},
		&models.DailyProfitEntry{},
		&models.InvestmentAudit{},
		&models.InvestmentEvent{},
		&models.SystemLog{},
	)
}
