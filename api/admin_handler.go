package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/unified-personal-site-frontend/editor"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxAdminBodySize caps admin form bodies, assets included.
const maxAdminBodySize = 64 << 20

// adminHandler serves the editor of one entity kind.
type adminHandler[E, F any] struct {
	responder Responder
	logger    zerolog.Logger
	entity    string
	editorOf  func(*workspace) *editor.Editor[E, F]
}

func newBlogHandler() adminHandler[models.BlogPost, models.BlogPostForm] {
	logger := log.With().Str("handlerName", "blogHandler").Logger()
	return adminHandler[models.BlogPost, models.BlogPostForm]{
		responder: NewResponder(logger),
		logger:    logger,
		entity:    "blog post",
		editorOf:  func(ws *workspace) *editor.Editor[models.BlogPost, models.BlogPostForm] { return ws.blog },
	}
}

func newProjectHandler() adminHandler[models.Project, models.ProjectForm] {
	logger := log.With().Str("handlerName", "projectHandler").Logger()
	return adminHandler[models.Project, models.ProjectForm]{
		responder: NewResponder(logger),
		logger:    logger,
		entity:    "project",
		editorOf:  func(ws *workspace) *editor.Editor[models.Project, models.ProjectForm] { return ws.projects },
	}
}

// decodeForm reads the form either from a JSON body or from a multipart body with the
// JSON in the "form" field and optional "image" and "zip" files.
func (h adminHandler[E, F]) decodeForm(w http.ResponseWriter, r *http.Request) (F, []editor.Attachment, error) {
	var form F
	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodySize)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return form, nil, bodyError(h.entity, err)
		}
		return form, nil, nil
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return form, nil, bodyError(h.entity, err)
	}
	raw := r.FormValue("form")
	if raw == "" {
		return form, nil, errs.NewMissingRequiredFieldError("form")
	}
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return form, nil, errs.NewMalformedPayloadError(h.entity, err)
	}

	var attachments []editor.Attachment
	for _, kind := range []string{models.AssetImage, models.AssetZip} {
		att, ok, err := readAttachment(r, kind, kind)
		if err != nil {
			return form, nil, err
		}
		if ok {
			attachments = append(attachments, att)
		}
	}
	return form, attachments, nil
}

// readAttachment reads the file in field as an asset of kind. ok is false when the field is absent.
func readAttachment(r *http.Request, field, kind string) (editor.Attachment, bool, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return editor.Attachment{}, false, nil
	}
	if err != nil {
		return editor.Attachment{}, false, errs.NewMalformedPayloadError(field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return editor.Attachment{}, false, errs.NewMalformedPayloadError(field, err)
	}
	return editor.Attachment{Kind: kind, FileName: header.Filename, Data: data}, true, nil
}

func bodyError(payloadType string, err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errs.NewMaxBodySizeExceededError(maxErr.Limit)
	}
	if errors.Is(err, multipart.ErrMessageTooLarge) {
		return errs.NewMaxBodySizeExceededError(maxAdminBodySize)
	}
	return errs.NewMalformedPayloadError(payloadType, err)
}

func (h adminHandler[E, F]) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := h.editorOf(ctxGetWorkspace(r.Context()))

		items, err := ed.List(r.Context())
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		if items == nil {
			items = []E{}
		}
		h.responder.WriteJSON(w, items)
	}
}

// state returns the editor's current draft and mode
func (h adminHandler[E, F]) state() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := h.editorOf(ctxGetWorkspace(r.Context()))
		h.responder.WriteJSON(w, ed.State())
	}
}

// create saves a new entity, then uploads its assets
// @Summary Create entity
// @Description Accepts JSON or multipart (JSON in "form", files in "image" and "zip"). Failed uploads are reported in pendingUploads and can be resumed.
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} editor.Result
// @Failure 400 {object} ErrorResponse "Bad Request - Missing required fields"
// @Failure 409 {object} ErrorResponse "Conflict - Already being submitted"
// @Router /admin/blog [post]
// @Router /admin/projects [post]
func (h adminHandler[E, F]) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := h.editorOf(ctxGetWorkspace(r.Context()))

		form, attachments, err := h.decodeForm(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := ed.SubmitForm(r.Context(), nil, form, attachments...)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteCreated(w, result)
	}
}

// update saves changes to an existing entity; its slug does not change
func (h adminHandler[E, F]) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := h.editorOf(ctxGetWorkspace(r.Context()))
		id := chi.URLParam(r, "id")

		form, attachments, err := h.decodeForm(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entity, err := ed.Find(r.Context(), id)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		result, err := ed.SubmitForm(r.Context(), &entity, form, attachments...)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, result)
	}
}

func (h adminHandler[E, F]) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := h.editorOf(ctxGetWorkspace(r.Context()))

		if err := ed.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
