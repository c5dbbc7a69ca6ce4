package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type marketplaceHandler struct {
	responder Responder
	logger    zerolog.Logger
}

func newMarketplaceHandler() marketplaceHandler {
	logger := log.With().Str("handlerName", "marketplaceHandler").Logger()

	return marketplaceHandler{
		responder: NewResponder(logger),
		logger:    logger,
	}
}

// getPurchased lists purchased and free projects
// @Summary Purchased projects
// @Tags Marketplace
// @Produce json
// @Success 200 {array} marketplace.Item
// @Router /marketplace/purchased [get]
func (h marketplaceHandler) getPurchased() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		items, err := ws.marketplace.Purchased(r.Context())
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, items)
	}
}

func (h marketplaceHandler) downloadProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		projectID := chi.URLParam(r, "projectID")

		location, err := ws.marketplace.DownloadByID(r.Context(), projectID)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, savedFileResponse{Location: location})
	}
}
