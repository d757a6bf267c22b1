package repo

import (
	"log"

	"github.com/tms7331/centralized-poker/internal/config"
	"github.com/tms7331/centralized-poker/internal/model"
	"github.com/tms7331/centralized-poker/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}

	if err := DB.AutoMigrate(
		&model.Admin{},
		&model.User{},
		&model.Wallet{},
		&model.BillingLog{},
		&model.TableRecord{},
		&model.HandLog{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
