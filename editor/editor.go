// Package editor runs the admin create/edit/delete flow for blog posts and projects.
// An entity is saved first and its assets are uploaded after; an upload that fails
// leaves the entity in place and is journaled so it can be resumed.
package editor

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/inflight"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeEditing
	ModeSubmitting
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEditing:
		return "editing"
	case ModeSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Attachment is an asset picked in the form, uploaded once the entity exists.
type Attachment struct {
	Kind     string
	FileName string
	Data     []byte
}

// State is the editor as the admin page renders it.
type State[F any] struct {
	Mode      Mode   `json:"mode"`
	Form      F      `json:"form"`
	EditingID string `json:"editingId,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result of a submit. Pending lists the assets that did not upload.
type Result[E any] struct {
	Entity  E                      `json:"entity"`
	Pending []models.PendingUpload `json:"pendingUploads"`
}

type Editor[E, F any] struct {
	backend Backend[E, F]
	creds   remote.Credentials
	journal Journal
	guard   *inflight.Set
	logger  zerolog.Logger
	now     func() time.Time

	mu        sync.Mutex
	mode      Mode
	form      F
	editingID string
	slug      string
	errMsg    string
	items     []E
}

// NewEditor builds an editor acting as creds. guard may be shared between editors so the
// same entity cannot be submitted twice at once; nil gives the editor its own.
func NewEditor[E, F any](backend Backend[E, F], creds remote.Credentials, journal Journal, guard *inflight.Set) *Editor[E, F] {
	if guard == nil {
		guard = inflight.NewSet()
	}
	return &Editor[E, F]{
		backend: backend,
		creds:   creds,
		journal: journal,
		guard:   guard,
		logger:  log.With().Str("component", "editor").Str("entityKind", backend.Kind()).Logger(),
		now:     time.Now,
	}
}

func (e *Editor[E, F]) State() State[F] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State[F]{Mode: e.mode, Form: e.form, EditingID: e.editingID, Slug: e.slug, Error: e.errMsg}
}

// Items returns the entities of the last list fetch.
func (e *Editor[E, F]) Items() []E {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.items)
}

func (e *Editor[E, F]) busy() error {
	if e.mode == ModeSubmitting {
		return errs.NewInFlightError("submit", e.backend.Kind())
	}
	return nil
}

// New opens a blank form for a new entity.
func (e *Editor[E, F]) New() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.busy(); err != nil {
		return err
	}
	var blank F
	e.mode, e.form, e.editingID, e.slug, e.errMsg = ModeEditing, blank, "", "", ""
	return nil
}

// Edit loads entity into the form. Its slug is kept for the rest of the edit.
func (e *Editor[E, F]) Edit(entity E) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.busy(); err != nil {
		return err
	}
	id, slug := e.backend.Identify(entity)
	e.mode, e.form, e.editingID, e.slug, e.errMsg = ModeEditing, e.backend.Form(entity), id, slug, ""
	return nil
}

// Update replaces the draft.
func (e *Editor[E, F]) Update(form F) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeEditing {
		return errs.NewBadRequestError(fmt.Sprintf("no %s is being edited", e.backend.Kind()))
	}
	e.form = form
	return nil
}

// Cancel drops the draft.
func (e *Editor[E, F]) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.busy(); err != nil {
		return err
	}
	var blank F
	e.mode, e.form, e.editingID, e.slug, e.errMsg = ModeIdle, blank, "", "", ""
	return nil
}

func (e *Editor[E, F]) checkAttachments(attachments []Attachment) error {
	var problems errs.ValidationErrors
	for _, att := range attachments {
		switch {
		case !slices.Contains(e.backend.AssetKinds(), att.Kind):
			problems = append(problems, errs.NewInvalidFieldError(att.Kind, fmt.Sprintf("a %s does not take this asset", e.backend.Kind())))
		case att.FileName == "" || len(att.Data) == 0:
			problems = append(problems, errs.NewMissingRequiredFieldError(att.Kind))
		}
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

// Submit validates the draft, saves it, then uploads attachments against the saved id
// and slug. A failed upload does not fail the submit; it is returned in Result.Pending
// and kept in the journal.
func (e *Editor[E, F]) Submit(ctx context.Context, attachments ...Attachment) (Result[E], error) {
	e.mu.Lock()
	if e.mode != ModeEditing {
		err := e.busy()
		e.mu.Unlock()
		if err != nil {
			return Result[E]{}, err
		}
		return Result[E]{}, errs.NewBadRequestError(fmt.Sprintf("no %s is being edited", e.backend.Kind()))
	}
	return e.submitLocked(ctx, attachments)
}

// SubmitForm loads form as a new draft, or over editing when it is non-nil, and submits it
// in the same lock hold, so the draft saved is always the one passed in.
func (e *Editor[E, F]) SubmitForm(ctx context.Context, editing *E, form F, attachments ...Attachment) (Result[E], error) {
	e.mu.Lock()
	if err := e.busy(); err != nil {
		e.mu.Unlock()
		return Result[E]{}, err
	}

	editingID, slug := "", ""
	if editing != nil {
		editingID, slug = e.backend.Identify(*editing)
	}
	e.mode, e.form, e.editingID, e.slug, e.errMsg = ModeEditing, form, editingID, slug, ""
	return e.submitLocked(ctx, attachments)
}

// submitLocked runs a submit of the current draft. Callers hold mu; it is released here.
func (e *Editor[E, F]) submitLocked(ctx context.Context, attachments []Attachment) (Result[E], error) {
	form, editingID, slug := e.form, e.editingID, e.slug
	err := validateForm(form)
	if err == nil {
		err = e.checkAttachments(attachments)
	}
	if err == nil && editingID == "" {
		slug = models.GenerateSlug(e.backend.Title(form))
		if slug == "" {
			err = errs.ValidationErrors{errs.NewInvalidFieldError("title", "must contain letters or digits")}
		}
	}
	if err != nil {
		e.errMsg = errs.UserMessage(err)
		e.mu.Unlock()
		return Result[E]{}, err
	}

	key := e.backend.Kind() + ":" + editingID
	if editingID == "" {
		key = e.backend.Kind() + ":new:" + slug
	}
	release, ok := e.guard.Acquire(key)
	if !ok {
		e.mu.Unlock()
		return Result[E]{}, errs.NewInFlightError("submit", key)
	}
	defer release()

	e.mode, e.errMsg = ModeSubmitting, ""
	e.mu.Unlock()

	var entity E
	if editingID == "" {
		entity, err = e.backend.Create(ctx, e.creds, form, slug)
	} else {
		entity, err = e.backend.Update(ctx, e.creds, editingID, form, slug)
	}
	if err != nil {
		e.mu.Lock()
		e.mode, e.errMsg = ModeEditing, errs.UserMessage(err)
		e.mu.Unlock()
		e.logger.Warn().Err(err).Str("slug", slug).Msg("Failed to save entity")
		return Result[E]{}, err
	}

	id, savedSlug := e.backend.Identify(entity)
	if savedSlug == "" {
		savedSlug = slug
	}
	pending := e.uploadAll(ctx, id, savedSlug, attachments)

	var blank F
	e.mu.Lock()
	e.mode, e.form, e.editingID, e.slug, e.errMsg = ModeIdle, blank, "", "", ""
	if len(pending) > 0 {
		e.errMsg = fmt.Sprintf("Saved, but %d upload(s) failed and can be resumed", len(pending))
	}
	e.mu.Unlock()

	e.logger.Info().Str("id", id).Str("slug", savedSlug).Int("pendingUploads", len(pending)).Msg("Entity saved")
	e.refresh(ctx)
	return Result[E]{Entity: entity, Pending: pending}, nil
}

func (e *Editor[E, F]) uploadAll(ctx context.Context, id, slug string, attachments []Attachment) []models.PendingUpload {
	pending := []models.PendingUpload{}
	for _, att := range attachments {
		asset := remote.Asset{FileName: att.FileName, Content: bytes.NewReader(att.Data)}
		url, err := e.backend.Upload(ctx, e.creds, att.Kind, id, slug, asset)
		if err == nil {
			e.logger.Debug().Str("id", id).Str("assetKind", att.Kind).Str("url", url).Msg("Asset uploaded")
			continue
		}

		now := e.now()
		upload := models.PendingUpload{
			ID:         uuid.NewString(),
			EntityKind: e.backend.Kind(),
			EntityID:   id,
			Slug:       slug,
			AssetKind:  att.Kind,
			FileName:   att.FileName,
			LastError:  errs.UserMessage(err),
			Attempts:   1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if journalErr := e.journal.Save(ctx, &upload); journalErr != nil {
			e.logger.Error().Err(journalErr).Str("id", id).Msg("Failed to journal pending upload")
		}
		e.logger.Warn().Err(err).Str("id", id).Str("assetKind", att.Kind).Msg("Asset upload failed, entity kept")
		pending = append(pending, upload)
	}
	return pending
}

// Resume retries a journaled upload with att's content. On success the entry is removed.
func (e *Editor[E, F]) Resume(ctx context.Context, pendingID string, att Attachment) (string, error) {
	upload, err := e.journal.FindByID(ctx, pendingID)
	if err != nil {
		return "", err
	}
	if upload.EntityKind != e.backend.Kind() {
		return "", errs.NewNotFoundError("pending upload " + pendingID)
	}
	if len(att.Data) == 0 {
		return "", errs.NewMissingRequiredFieldError(upload.AssetKind)
	}

	release, ok := e.guard.Acquire("upload:" + pendingID)
	if !ok {
		return "", errs.NewInFlightError("upload", pendingID)
	}
	defer release()

	fileName := att.FileName
	if fileName == "" {
		fileName = upload.FileName
	}

	url, err := e.backend.Upload(ctx, e.creds, upload.AssetKind, upload.EntityID, upload.Slug, remote.Asset{FileName: fileName, Content: bytes.NewReader(att.Data)})
	if err != nil {
		upload.Attempts++
		upload.LastError = errs.UserMessage(err)
		upload.UpdatedAt = e.now()
		if journalErr := e.journal.Save(ctx, upload); journalErr != nil {
			e.logger.Error().Err(journalErr).Str("pendingID", pendingID).Msg("Failed to update pending upload")
		}
		return "", err
	}

	if err := e.journal.Delete(ctx, pendingID); err != nil {
		e.logger.Error().Err(err).Str("pendingID", pendingID).Msg("Failed to clear pending upload")
	}
	e.logger.Info().Str("pendingID", pendingID).Str("url", url).Msg("Pending upload resumed")
	e.refresh(ctx)
	return url, nil
}

// Pending lists journaled uploads of this entity kind.
func (e *Editor[E, F]) Pending(ctx context.Context) ([]models.PendingUpload, error) {
	return e.journal.FindAll(ctx, e.backend.Kind())
}

// Delete removes an entity along with its journaled uploads.
func (e *Editor[E, F]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errs.NewMissingRequiredFieldError("id")
	}

	key := e.backend.Kind() + ":" + id
	release, ok := e.guard.Acquire(key)
	if !ok {
		return errs.NewInFlightError("delete", key)
	}
	defer release()

	if err := e.backend.Delete(ctx, e.creds, id); err != nil {
		e.mu.Lock()
		e.errMsg = errs.UserMessage(err)
		e.mu.Unlock()
		return err
	}

	if err := e.journal.DeleteByEntity(ctx, e.backend.Kind(), id); err != nil {
		e.logger.Error().Err(err).Str("id", id).Msg("Failed to clear pending uploads of deleted entity")
	}

	e.mu.Lock()
	if e.editingID == id && e.mode == ModeEditing {
		var blank F
		e.mode, e.form, e.editingID, e.slug = ModeIdle, blank, "", ""
	}
	e.errMsg = ""
	e.mu.Unlock()

	e.refresh(ctx)
	return nil
}

// List fetches the entities and keeps them for Items and Find.
func (e *Editor[E, F]) List(ctx context.Context) ([]E, error) {
	items, err := e.backend.List(ctx, e.creds)
	if err != nil {
		e.mu.Lock()
		e.errMsg = errs.UserMessage(err)
		e.mu.Unlock()
		return nil, err
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	return slices.Clone(items), nil
}

// Find returns the entity with id, fetching the list when it is not cached.
func (e *Editor[E, F]) Find(ctx context.Context, id string) (E, error) {
	for _, fetch := range []bool{false, true} {
		items := e.Items()
		if fetch {
			var err error
			if items, err = e.List(ctx); err != nil {
				var zero E
				return zero, err
			}
		}
		for _, item := range items {
			if itemID, _ := e.backend.Identify(item); itemID == id {
				return item, nil
			}
		}
	}
	var zero E
	return zero, errs.NewNotFoundError(fmt.Sprintf("%s %s", e.backend.Kind(), id))
}

// refresh refetches after a change. A failed refetch is only logged; the change stands.
func (e *Editor[E, F]) refresh(ctx context.Context) {
	if _, err := e.List(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to refetch after change")
	}
}
