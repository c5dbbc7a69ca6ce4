package database

import (
	"context"

	"github.com/rpupo63/unified-personal-site-frontend/models"
	"gorm.io/gorm"
)

type Database struct {
	db                *gorm.DB
	pendingUploadRepo *PendingUploadRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:                db,
		pendingUploadRepo: NewPendingUploadRepo(db),
	}
}

func (d Database) PendingUploadRepo() *PendingUploadRepo {
	return d.pendingUploadRepo
}

// Migrate creates or updates the tables this service owns.
func (d Database) Migrate() error {
	return models.Migrate(d.db)
}

// Ping checks the connection, for health checks.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
