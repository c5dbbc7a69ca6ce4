package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rs/zerolog"
)

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	// Marshal the data first to check size and handle errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	const maxResponseSize = 10 * 1024 * 1024 // 10MB
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large, truncating")

		truncatedJSON, _ := json.Marshal(map[string]any{
			"error":        "Response too large",
			"message":      "The requested data exceeds the maximum response size",
			"maxSizeMB":    maxResponseSize / (1024 * 1024),
			"actualSizeMB": len(jsonData) / (1024 * 1024),
		})
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write(truncatedJSON)
		return
	}

	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteCreated writes data with a 201 status.
func (r Responder) WriteCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	r.WriteJSON(w, data)
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	if remoteErr, ok := errs.AsRemote(err); ok {
		r.writeRemoteError(w, remoteErr)
		return
	}

	var validation errs.ValidationErrors
	if errors.As(err, &validation) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		r.WriteJSON(w, ErrorResponse{
			Error:   "Validation error",
			Status:  "validation_error",
			Details: validation.Error(),
			Fields:  validation.Fields(),
		})
		return
	}

	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Msg(err.Error())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		r.WriteJSON(w, ErrorResponse{
			Error:   "Internal Server Error",
			Status:  "error",
			Details: "An unexpected error occurred",
		})
		return
	}

	response := ErrorResponse{
		Error:    apiErr.Error(),
		Status:   "error",
		Field:    apiErr.Field,
		Details:  apiErr.Details,
		Redirect: apiErr.Redirect,
	}

	// Add full error chain for debugging
	if apiErr.Cause != nil {
		response.Cause = apiErr.GetFullError()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.StatusCode)
	r.WriteJSON(w, response)
}

// writeRemoteError turns an upstream failure into our own answer. The message is the one
// the page shows; upstream 5xx and network failures become 502.
func (r Responder) writeRemoteError(w http.ResponseWriter, remoteErr *errs.RemoteError) {
	message := errs.UserMessage(remoteErr)
	response := ErrorResponse{Error: message, Status: "error", Code: remoteErr.Code}

	status := http.StatusBadGateway
	switch remoteErr.Kind {
	case errs.KindAccountDeleted:
		status = http.StatusUnauthorized
		response.Redirect = "/login"
	case errs.KindValidation:
		status = http.StatusBadRequest
		response.Status = "validation_error"
	case errs.KindServer:
		if remoteErr.StatusCode >= 400 && remoteErr.StatusCode < 500 {
			status = remoteErr.StatusCode
		}
	}

	if status >= 500 {
		r.logger.Warn().Err(remoteErr).Str("kind", remoteErr.Kind.String()).Msg("upstream failure")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	r.WriteJSON(w, response)
}

// WriteBlob sends a binary document as an attachment.
func (r Responder) WriteBlob(w http.ResponseWriter, fileName, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	if _, err := w.Write(data); err != nil {
		r.logger.Error().Err(err).Msg("error writing file response")
	}
}
