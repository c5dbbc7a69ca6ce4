package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/unified-personal-site-frontend/editor"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	journal   editor.Journal
}

func newUploadHandler(journal editor.Journal) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		journal:   journal,
	}
}

// getPending lists uploads that failed after their entity was saved
// @Summary Pending uploads
// @Tags Admin
// @Produce json
// @Param kind query string false "blog or project"
// @Success 200 {array} models.PendingUpload
// @Router /admin/uploads/pending [get]
func (h uploadHandler) getPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := h.journal.FindAll(r.Context(), r.URL.Query().Get("kind"))
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to list pending uploads", err))
			return
		}
		h.responder.WriteJSON(w, uploads)
	}
}

// resume retries a pending upload with the file in the "file" field
func (h uploadHandler) resume() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		uploadID := chi.URLParam(r, "uploadID")

		upload, err := h.journal.FindByID(r.Context(), uploadID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodySize)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			h.responder.WriteError(w, bodyError("upload", err))
			return
		}
		att, ok, err := readAttachment(r, "file", upload.AssetKind)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !ok {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			return
		}

		var url string
		switch upload.EntityKind {
		case models.EntityBlogPost:
			url, err = ws.blog.Resume(r.Context(), uploadID, att)
		case models.EntityProject:
			url, err = ws.projects.Resume(r.Context(), uploadID, att)
		default:
			err = errs.NewNotFoundError("pending upload " + uploadID)
		}
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}

		h.logger.Info().Str("uploadID", uploadID).Msg("Pending upload resumed")
		h.responder.WriteJSON(w, uploadResponse{URL: url})
	}
}
