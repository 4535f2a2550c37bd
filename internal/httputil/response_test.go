package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_MapsStatusToProblem(t *testing.T) {
	tests := []struct {
		status   int
		wantType string
		wantCode int
	}{
		{http.StatusBadRequest, "/problems/bad-request", http.StatusBadRequest},
		{http.StatusUnauthorized, "/problems/unauthorized", http.StatusUnauthorized},
		{http.StatusNotFound, "/problems/not-found", http.StatusNotFound},
		{http.StatusRequestEntityTooLarge, "/problems/too-large", http.StatusRequestEntityTooLarge},
		{http.StatusUnprocessableEntity, "/problems/render-failed", http.StatusUnprocessableEntity},
		{http.StatusInternalServerError, "/problems/internal", http.StatusInternalServerError},
		{http.StatusTeapot, "/problems/internal", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.status, "detail")

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "detail", body["detail"])
		})
	}
}

func TestRespondProblem_ExtrasCannotShadowMembers(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondProblem(rec, ProblemRenderFailed, "", map[string]interface{}{
		"document": "x.pdf",
		"status":   200,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "x.pdf", body["document"])
	assert.EqualValues(t, http.StatusUnprocessableEntity, body["status"])
	assert.NotContains(t, body, "detail")
}
