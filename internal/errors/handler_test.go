package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dscleaner/internal/shared/testutil"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantType    string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "unsupported format",
			err:         NewUnsupportedFormatError(nil),
			wantStatus:  http.StatusUnsupportedMediaType,
			wantType:    TypeUnsupportedFormat,
			wantCode:    "UNSUPPORTED_FORMAT",
			wantMessage: MsgUnsupportedFormat,
		},
		{
			name:        "no dataset",
			err:         NewNoDatasetError(),
			wantStatus:  http.StatusConflict,
			wantType:    TypeNoDataset,
			wantCode:    "NO_DATASET_LOADED",
			wantMessage: MsgNoDataset,
		},
		{
			name:        "wrapped invalid argument",
			err:         fmt.Errorf("handler: %w", NewInvalidArgumentError("invalid method 'x' specified", nil)),
			wantStatus:  http.StatusBadRequest,
			wantType:    TypeValidation,
			wantCode:    "INVALID_ARGUMENT",
			wantMessage: "invalid method 'x' specified",
		},
		{
			name:        "processing includes cause",
			err:         NewProcessingError("Error generating report", errors.New("template broke")),
			wantStatus:  http.StatusInternalServerError,
			wantType:    TypeProcessing,
			wantCode:    "PROCESSING",
			wantMessage: "Error generating report: template broke",
		},
		{
			name:        "api error",
			err:         ErrMissingFile,
			wantStatus:  http.StatusBadRequest,
			wantType:    TypeValidation,
			wantCode:    "MISSING_PARAMETER",
			wantMessage: "No file uploaded",
		},
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantCode:   "TIMEOUT",
		},
		{
			name:       "request body too large",
			err:        fmt.Errorf("parse form: %w", &http.MaxBytesError{Limit: 10}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantCode:   "PAYLOAD_TOO_LARGE",
		},
		{
			name:        "unknown error hides details",
			err:         errors.New("secret internals"),
			wantStatus:  http.StatusInternalServerError,
			wantType:    TypeInternal,
			wantCode:    "INTERNAL_SERVER_ERROR",
			wantMessage: "An unexpected error occurred while processing your request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			r := httptest.NewRequest(http.MethodPost, "/api/handle_missing", nil)
			r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-1"))
			w := httptest.NewRecorder()
			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, "req-1", body["trace_id"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleNilError(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := httptest.NewRecorder()
	NewErrorHandler(logger, false).HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Zero(t, w.Body.Len())
}

func TestErrorHandler_AppErrorContextBecomesExtension(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	err := NewNotFoundError("Target column 'y'").WithContext("column", "y")
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodPost, "/api/train_test_split", nil), err)

	body := decode(t, w)
	assert.Equal(t, "y", body["column"])
	assert.Equal(t, "/api/train_test_split", body["instance"])
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := httptest.NewRecorder()
	NewErrorHandler(logger, true).HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("x"))
	assert.Contains(t, decode(t, w), "stack")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["error_code"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.True(t, strings.Contains(decode(t, w)["message"].(string), "DELETE"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	handler := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "An unexpected error occurred", body["message"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "bad input", "/api/x").
		WithExtension("error_code", "INVALID_ARGUMENT").
		WithExtension("type", "ignored")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, "bad input", body["detail"])
	assert.Equal(t, "bad input", body["message"])
	assert.Equal(t, false, body["success"])

	custom := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "d", "").
		WithExtension("message", "custom")
	data, err = json.Marshal(custom)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "custom", body["message"])
}
