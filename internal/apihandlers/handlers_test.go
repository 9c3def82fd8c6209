package apihandlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"remsort/internal/models"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", fmt.Errorf("bad input: %w", models.ErrValidation), http.StatusBadRequest, "bad_request"},
		{"not found", fmt.Errorf("entry x: %w", models.ErrNotFound), http.StatusNotFound, "not_found"},
		{"already exists", fmt.Errorf("category y: %w", models.ErrAlreadyExists), http.StatusConflict, "conflict"},
		{"no backend", models.ErrNoBackend, http.StatusServiceUnavailable, "no_backend"},
		{"unrecognized", fmt.Errorf("disk full"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tc.code+`"`)
		})
	}
}
