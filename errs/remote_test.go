package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		message string
		want    RemoteKind
	}{
		{"plain server error", http.StatusBadRequest, "", "Plan not available", KindServer},
		{"structured account deleted", http.StatusNotFound, CodeAccountDeleted, "gone", KindAccountDeleted},
		{"legacy account deleted message", http.StatusNotFound, "", "User not found", KindAccountDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServerError(tt.status, tt.code, tt.message)
			assert.Equal(t, tt.want, err.Kind)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestNewServerErrorFallsBackToStatusText(t *testing.T) {
	err := NewServerError(http.StatusBadGateway, "", "")
	assert.Equal(t, "Bad Gateway", err.Message)
	assert.Equal(t, "Bad Gateway (status 502)", err.Error())
}

func TestAccountDeletedThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("reload: %w", NewServerError(http.StatusNotFound, CodeAccountDeleted, "gone"))
	assert.True(t, IsAccountDeleted(wrapped))
	assert.False(t, IsAccountDeleted(errors.New("boom")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Plan not available", UserMessage(NewServerError(http.StatusBadRequest, "", "Plan not available")))
	assert.Equal(t, "Unable to reach the server. Please try again.", UserMessage(NewNetworkError("request failed", errors.New("dial tcp"))))
	assert.Equal(t, "No active subscription to cancel", UserMessage(NewValidationError("No active subscription to cancel")))

	validation := ValidationErrors{NewMissingRequiredFieldError("title"), NewMissingRequiredFieldError("category")}
	assert.Equal(t, "Missing required field: title; Missing required field: category", UserMessage(validation))
}

func TestValidationErrorsUnwrap(t *testing.T) {
	var err error = ValidationErrors{NewMissingRequiredFieldError("title")}
	assert.True(t, IsMissingRequiredFieldError(err))

	var validation ValidationErrors
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, []string{"title"}, validation.Fields())
}

func TestApiErrFullError(t *testing.T) {
	err := NewInternalErrorWithCause("load failed", NewNotFoundError("blog post"))
	assert.Equal(t, "load failed -> not found: blog post", err.GetFullError())
	assert.True(t, IsNotFound(NewNotFoundError("x")))
	assert.True(t, IsUnauthorized(NewSessionEndedError("account deleted")))
}
