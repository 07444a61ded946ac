package validators

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/mitaina/backend/internal/models"
)

func TestValidateCreatePost(t *testing.T) {
	v := NewValidator([]string{"movie", "stage"})

	assert.NoError(t, v.Validate(&models.CreatePostRequest{Text: "よかった", Genre: "movie"}))

	err := v.Validate(&models.CreatePostRequest{Text: "よかった", Genre: "podcast"})
	require.Error(t, err)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Message, "genre is not a known genre")

	err = v.Validate(&models.CreatePostRequest{Text: strings.Repeat("あ", models.MaxPostTextInput+1), Genre: "movie"})
	require.ErrorAs(t, err, &he)
	assert.Contains(t, he.Message, "text must be at most 136 characters")

	assert.NoError(t, v.Validate(&models.CreatePostRequest{Text: strings.Repeat("あ", models.MaxPostTextInput), Genre: "stage"}))
}

func TestValidateSignup(t *testing.T) {
	v := NewValidator(nil)

	ok := &models.CreateLocalUserRequest{Username: "mitaina_fan", Email: "fan@example.com", Password1: "password123", Password2: "password123"}
	assert.NoError(t, v.Validate(ok))

	bad := *ok
	bad.Username = "has space"
	assert.Error(t, v.Validate(&bad))

	bad = *ok
	bad.Password2 = "different1"
	err := v.Validate(&bad)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Contains(t, he.Message, "password2 must match Password1")
}

func TestValidateReport(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.Validate(&models.CreateReportRequest{Reason: models.ReportQuote}))
	assert.Error(t, v.Validate(&models.CreateReportRequest{Reason: "boring"}))
}
