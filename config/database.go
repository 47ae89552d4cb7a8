package config

import (
	"fmt"
	"strings"
	"time"

	"restaurant-api/models"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the configured database and migrates all models.
func InitDB(conf Config, lg *log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(conf.Database.Driver) {
	case "postgres":
		dialector = postgres.Open(conf.Database.DSN)
	default:
		dialector = sqlite.Open(conf.Database.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(lg, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		// sqlite keeps timestamps as text, so every stored time is UTC
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if strings.ToLower(conf.Database.Driver) == "sqlite" {
		// sqlite serialises writers anyway; one connection avoids "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	lg.WithField("driver", conf.Database.Driver).Info("database connected and migrated")
	return db, nil
}
