package database

import (
	"fmt"
	"log/slog"

	"github.com/vpskeeper/vpskeeper/internal/config"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	slog.Info("Database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.AccessUser{},
		&models.AppSetting{},
		&models.Server{},
		&models.ServerTag{},
		&models.Billing{},
		&models.Manual{},
		&models.ManualTag{},
		&models.NotificationLog{},
	)
}
