package event

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/pkg/logger"
)

type captureService struct {
	events []*model.OutboxEvent
}

func (s *captureService) CreateEvent(_ context.Context, event *model.OutboxEvent) error {
	s.events = append(s.events, event)
	return nil
}

func trackedRoute(svc Service, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracker := NewTrackerMiddleware(svc, logger.NewLogger(nil))
	r := gin.New()
	r.PUT("/things/:id", tracker.Track("event", OpUpdate), handler)
	return r
}

func TestTrackRecordsChange(t *testing.T) {
	svc := &captureService{}
	r := trackedRoute(svc, func(c *gin.Context) {
		ec := FromGin(c)
		ec.OldData = map[string]interface{}{"status": "lead"}
		ec.NewData = map[string]interface{}{"status": "confirmed"}
		c.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/things/1", nil))

	require.Len(t, svc.events, 1)
	recorded := svc.events[0]
	assert.Equal(t, "event_update", recorded.EventType)
	assert.Equal(t, string(model.OutboxStatusPending), recorded.Status)

	var env ChangeEnvelope
	require.NoError(t, json.Unmarshal(recorded.Payload, &env))
	assert.Equal(t, "event", env.Entity)
	assert.Equal(t, OpUpdate, env.Operation)
	assert.Equal(t, "confirmed", env.Data["status"])
	assert.Equal(t, "lead", env.OldData["status"])
}

func TestTrackSkipsWhenNothingChanged(t *testing.T) {
	svc := &captureService{}
	r := trackedRoute(svc, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/things/1", nil))

	assert.Empty(t, svc.events)
}

func TestTrackSkipsOnErrorStatus(t *testing.T) {
	svc := &captureService{}
	r := trackedRoute(svc, func(c *gin.Context) {
		ec := FromGin(c)
		ec.NewData = map[string]interface{}{"status": "confirmed"}
		c.JSON(http.StatusBadRequest, gin.H{})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/things/1", nil))

	assert.Empty(t, svc.events)
}
