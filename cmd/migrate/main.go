package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/repository"
	"investcore/internal/services/investment"
	"investcore/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back the last migration instead of applying pending ones")
	dir := flag.String("dir", config.MigrationsDir, "directory holding the SQL migrations")
	adminEmail := flag.String("create-admin", "", "create an admin user with this email; password from ADMIN_PASSWORD")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}
	log := config.InitLogger(settings.Logging, false)
	config.MigrationsDir = *dir

	db, err := config.OpenDB(settings.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if *down {
		if err := config.RollbackMigration(db); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := config.ExecuteMigrations(db); err != nil {
		log.Fatal(err)
	}

	if *adminEmail != "" {
		svc := investment.NewService(repository.NewGormStore(db, log), investment.Options{
			DBTimeout: settings.Database.GetTimeout(),
			Logger:    log,
		})
		user, err := svc.CreateUser(context.Background(), investment.CreateUserInput{
			FirstName: "Admin",
			Email:     *adminEmail,
			Password:  os.Getenv("ADMIN_PASSWORD"),
			Role:      models.RoleAdmin,
		})
		if err != nil {
			log.Fatal("Failed to create admin user: ", err)
		}
		log.Infof("Created admin user %s (id %d)", user.Email, user.ID)
	}
}
