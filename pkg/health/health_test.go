package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var resp statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestReadyEndpointNotReadyByDefault(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")
}

func TestReadyEndpointAfterSetReady(t *testing.T) {
	h := New()
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeStatus(t, rec).Status)
	assert.True(t, h.IsReady())
}

func TestLiveEndpointHealthyBeforeFirstRun(t *testing.T) {
	h := New()
	h.AddLivenessCheck("never-run", time.Second, func(context.Context) error {
		return errors.New("boom")
	})

	// Checks start healthy until the supervisor observes enough failures.
	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProbeFailureThreshold(t *testing.T) {
	p := newProbe("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	ctx := context.Background()

	p.execute(ctx)
	p.execute(ctx)
	assert.True(t, p.result.Load().healthy, "two failures should not flip the probe")

	p.execute(ctx)
	res := p.result.Load()
	assert.False(t, res.healthy)
	assert.EqualError(t, res.err, "connection refused")
}

func TestProbeRecoversAfterSingleSuccess(t *testing.T) {
	healthy := false
	p := newProbe("db", time.Second, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})

	ctx := context.Background()
	for range failuresToUnhealthy {
		p.execute(ctx)
	}
	require.False(t, p.result.Load().healthy)

	healthy = true
	p.execute(ctx)
	assert.True(t, p.result.Load().healthy)
}

func TestUnhealthyReadinessCheckBlocksReady(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("postgres", time.Second, func(context.Context) error {
		return errors.New("no route to host")
	})

	for _, p := range h.readiness {
		for range failuresToUnhealthy {
			p.execute(context.Background())
		}
	}

	assert.False(t, h.IsReady())

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "no route to host", resp.Checks["postgres"])
}

func TestSupervisorRunsChecks(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := New()
	h.AddLivenessCheck("signal", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("check was never executed")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.Start(context.Background(), time.Minute)
	h.Stop()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(fakePinger{})(context.Background()))
	assert.Error(t, PingCheck(fakePinger{err: errors.New("refused")})(context.Background()))
}
