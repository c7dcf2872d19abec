package db_client

import (
	"context"
	"fmt"
	"time"

	"github.com/Strum355/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Init opens postgres at dsn, waiting for it to come up, and migrates the schema
func Init(ctx context.Context, dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for range connectAttempts {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.PingContext(ctx); err == nil {
					break
				}
			} else {
				err = dbErr
			}
		}

		log.Info("Waiting for Postgres to be ready...")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Guild{}, &PlayRecord{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
