package models

import "time"

// Entity kinds an asset can belong to.
const (
	EntityBlogPost = "blog"
	EntityProject  = "project"
)

// Asset kinds uploaded after the entity exists.
const (
	AssetImage = "image"
	AssetZip   = "zip"
)

// PendingUpload records an entity whose asset upload failed after the entity itself was saved.
// The entity stays live; the record lets an admin resume the upload later.
type PendingUpload struct {
	ID         string    `json:"id" gorm:"type:text;primaryKey;not null"`
	EntityKind string    `json:"entityKind" gorm:"type:text;not null;index:idx_pending_upload_entity"`
	EntityID   string    `json:"entityId" gorm:"type:text;not null;index:idx_pending_upload_entity"`
	Slug       string    `json:"slug" gorm:"type:text;not null"`
	AssetKind  string    `json:"assetKind" gorm:"type:text;not null"`
	FileName   string    `json:"fileName" gorm:"type:text;not null"`
	LastError  string    `json:"lastError" gorm:"type:text"`
	Attempts   int       `json:"attempts" gorm:"type:integer;not null"`
	CreatedAt  time.Time `json:"createdAt" gorm:"type:timestamp;not null"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"type:timestamp;not null"`
}
