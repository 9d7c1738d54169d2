package scan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/notifier/scanner"
)

type stubScanner struct {
	name    string
	summary *scanner.Summary
	err     error
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Run(context.Context) (*scanner.Summary, error) {
	return s.summary, s.err
}

func setupRouter(scanners ...scanner.Scanner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(scanners...).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestRunScanSuccess(t *testing.T) {
	r := setupRouter(&stubScanner{
		name:    "open_quote",
		summary: &scanner.Summary{Scanner: "open_quote", Processed: 3, Sent: 2, Skipped: 1},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans/open-quotes", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data scanner.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Processed)
	assert.Equal(t, 2, resp.Data.Sent)
}

func TestRunScanConfigError(t *testing.T) {
	r := setupRouter(&stubScanner{
		name: "payment",
		err:  errors.New(`template "payment_reminder" not configured`),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans/payments", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "payment_reminder")
}

func TestRunScanUnknown(t *testing.T) {
	r := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans/payments", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
