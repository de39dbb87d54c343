package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/http/handlers"
)

func TestRespondAppError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", apperr.NotFound("project_not_found", "project not found"), http.StatusNotFound, "project_not_found"},
		{"forbidden", apperr.Forbidden("forbidden", "not yours"), http.StatusForbidden, "forbidden"},
		{"unauthorized", apperr.Unauthorized("invalid_credentials", "bad login"), http.StatusUnauthorized, "invalid_credentials"},
		{"validation", apperr.Validation("email_taken", "email already registered"), http.StatusBadRequest, "email_taken"},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.NotFound("user_not_found", "user not found")), http.StatusNotFound, "user_not_found"},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(ctx *gin.Context) { handlers.RespondAppError(ctx, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("status=%d, want %d", w.Code, tt.wantCode)
			}

			var body struct {
				Error handlers.APIError `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantBody {
				t.Fatalf("code=%q, want %q", body.Error.Code, tt.wantBody)
			}
			if strings.Contains(w.Body.String(), "pq:") {
				t.Fatalf("internal error details leaked: %s", w.Body.String())
			}
		})
	}
}

func TestRespondJSONWithETag(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(ctx *gin.Context) {
		handlers.RespondJSONWithETag(ctx, http.StatusOK, gin.H{"id": 1})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("status=%d etag=%q", w.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-None-Match", "W/"+etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("weak match should give 304, got %d", w.Code)
	}
}
