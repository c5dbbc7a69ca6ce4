package database

import (
	"context"
	"errors"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"gorm.io/gorm"
)

// PendingUploadRepo is the durable upload journal.
type PendingUploadRepo struct {
	db *gorm.DB
}

func NewPendingUploadRepo(db *gorm.DB) *PendingUploadRepo {
	return &PendingUploadRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *PendingUploadRepo) GetDB() *gorm.DB {
	return r.db
}

// FindAll returns pending uploads of entityKind, or all of them when it is empty, oldest first
func (r *PendingUploadRepo) FindAll(ctx context.Context, entityKind string) ([]models.PendingUpload, error) {
	uploads := []models.PendingUpload{}
	query := r.db.WithContext(ctx)
	if entityKind != "" {
		query = query.Where("entity_kind = ?", entityKind)
	}
	if err := query.Order("created_at").Find(&uploads).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "pending uploads", err)
	}
	return uploads, nil
}

// FindByID returns a pending upload by its ID
func (r *PendingUploadRepo) FindByID(ctx context.Context, id string) (*models.PendingUpload, error) {
	var upload models.PendingUpload
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFoundError("pending upload " + id)
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "pending upload", err)
	}
	return &upload, nil
}

// Save inserts the upload or updates it when it already exists
func (r *PendingUploadRepo) Save(ctx context.Context, upload *models.PendingUpload) error {
	if err := r.db.WithContext(ctx).Save(upload).Error; err != nil {
		return errs.NewDatabaseError("save", "pending upload", err)
	}
	return nil
}

// Delete removes a pending upload by id
func (r *PendingUploadRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PendingUpload{})
	if result.Error != nil {
		return errs.NewDatabaseError("delete", "pending upload", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFoundError("pending upload " + id)
	}
	return nil
}

// DeleteByEntity removes every pending upload of one entity
func (r *PendingUploadRepo) DeleteByEntity(ctx context.Context, entityKind, entityID string) error {
	err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
		Delete(&models.PendingUpload{}).Error
	if err != nil {
		return errs.NewDatabaseError("delete", "pending uploads", err)
	}
	return nil
}
