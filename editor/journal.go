package editor

import (
	"context"
	"sort"
	"sync"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
)

// Journal remembers asset uploads that failed after their entity was saved.
type Journal interface {
	Save(ctx context.Context, upload *models.PendingUpload) error
	FindByID(ctx context.Context, id string) (*models.PendingUpload, error)
	FindAll(ctx context.Context, entityKind string) ([]models.PendingUpload, error)
	Delete(ctx context.Context, id string) error
	DeleteByEntity(ctx context.Context, entityKind, entityID string) error
}

// MemoryJournal keeps entries for the life of the process.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries map[string]models.PendingUpload
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: make(map[string]models.PendingUpload)}
}

func (j *MemoryJournal) Save(ctx context.Context, upload *models.PendingUpload) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[upload.ID] = *upload
	return nil
}

func (j *MemoryJournal) FindByID(ctx context.Context, id string) (*models.PendingUpload, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	upload, ok := j.entries[id]
	if !ok {
		return nil, errs.NewNotFoundError("pending upload " + id)
	}
	return &upload, nil
}

// FindAll lists entries of entityKind, or all entries when it is empty, oldest first.
func (j *MemoryJournal) FindAll(ctx context.Context, entityKind string) ([]models.PendingUpload, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	uploads := []models.PendingUpload{}
	for _, upload := range j.entries {
		if entityKind == "" || upload.EntityKind == entityKind {
			uploads = append(uploads, upload)
		}
	}
	sort.Slice(uploads, func(a, b int) bool {
		return uploads[a].CreatedAt.Before(uploads[b].CreatedAt)
	})
	return uploads, nil
}

func (j *MemoryJournal) Delete(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.entries[id]; !ok {
		return errs.NewNotFoundError("pending upload " + id)
	}
	delete(j.entries, id)
	return nil
}

func (j *MemoryJournal) DeleteByEntity(ctx context.Context, entityKind, entityID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for id, upload := range j.entries {
		if upload.EntityKind == entityKind && upload.EntityID == entityID {
			delete(j.entries, id)
		}
	}
	return nil
}
