package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/daaslabs/indexsync/internal/api"
	"github.com/daaslabs/indexsync/internal/status"
	"github.com/daaslabs/indexsync/internal/sync/coordinator/mocks"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	// No expectations needed - health check doesn't touch the coordinator
	server := api.NewServer(status.NewTracker(), mocks.NewMockCoordinator(ctrl))

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

func TestStatusRouting(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	tracker := status.NewTracker()
	tracker.SetPhase("asset", status.PhaseListening)

	server := api.NewServer(tracker, mocks.NewMockCoordinator(ctrl))

	req, err := http.NewRequest("GET", "/v1/status/asset", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var st status.DomainStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, status.PhaseListening, st.Phase)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	t.Run("disabled without a registry", func(t *testing.T) {
		t.Parallel()
		server := api.NewServer(status.NewTracker(), mocks.NewMockCoordinator(ctrl))

		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("served when a registry is set", func(t *testing.T) {
		t.Parallel()
		server := api.NewServer(
			status.NewTracker(),
			mocks.NewMockCoordinator(ctrl),
			api.WithMetricsRegistry(prometheus.NewRegistry()),
		)

		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestMiddlewaresApplied(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	server := api.NewServer(
		status.NewTracker(),
		mocks.NewMockCoordinator(ctrl),
		api.WithMiddlewares(middleware.RequestID, api.LoggingMiddleware),
	)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}
