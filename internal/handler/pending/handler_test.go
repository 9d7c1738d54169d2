package pending

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

type fakePending struct {
	repository.PendingRepository
	deliveries  []*model.PendingDelivery
	includeSent bool
}

func (f *fakePending) List(_ context.Context, includeSent bool) ([]*model.PendingDelivery, error) {
	f.includeSent = includeSent
	return f.deliveries, nil
}

func setupRouter(repo repository.PendingRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestListPending(t *testing.T) {
	repo := &fakePending{deliveries: []*model.PendingDelivery{
		{ID: uuid.New(), RecipientKey: "supplier:abc", Title: "t"},
	}}
	r := setupRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/pending", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, repo.includeSent)

	var resp struct {
		Data []*model.PendingDelivery `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "supplier:abc", resp.Data[0].RecipientKey)
}

func TestListPendingIncludeSent(t *testing.T) {
	repo := &fakePending{}
	r := setupRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/pending?include_sent=true", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, repo.includeSent)
}
