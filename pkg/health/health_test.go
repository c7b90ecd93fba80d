package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, endpoint http.HandlerFunc, want int) *httptest.ResponseRecorder {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := httptest.NewRecorder()
		endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code == want || time.Now().After(deadline) {
			require.Equal(t, want, rec.Code)
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReadyEndpoint_GatedOnSetReady(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFailingCheckReportsUnhealthy(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("database", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	rec := waitForStatus(t, h.ReadyEndpoint, http.StatusServiceUnavailable)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestCheckRecovers(t *testing.T) {
	h := New()
	h.SetReady(true)

	var failing atomic.Bool
	failing.Store(true)
	h.AddReadinessCheck("flaky", time.Second, func(context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	waitForStatus(t, h.ReadyEndpoint, http.StatusServiceUnavailable)

	failing.Store(false)
	waitForStatus(t, h.ReadyEndpoint, http.StatusOK)
}

func TestLivenessIndependentOfReadiness(t *testing.T) {
	h := New()
	// Not ready, no liveness checks registered: the process is still alive.
	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
