package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
	"trade_journal/internal/modules/health/service"
	"trade_journal/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

type pinger struct{ err error }

func (p *pinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadyzFollowsStateAndDatabase(t *testing.T) {
	db := &pinger{}
	state := service.NewState(db)
	mux := NewMux(state, NewRegistry())

	assert.Equal(t, http.StatusOK, get(t, mux, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/readyz").Code)

	state.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, mux, "/readyz").Code)

	db.err = errors.New("connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/readyz").Code)
}

func TestHealthzJSON(t *testing.T) {
	state := service.NewState(&pinger{})
	state.SetReady(true)
	state.TouchRequest(time.Unix(1700000000, 0))
	mux := NewMux(state, NewRegistry())

	rec := get(t, mux, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ready"])
	assert.EqualValues(t, 1, body["requests"])
	assert.EqualValues(t, 1700000000, body["lastRequestUnix"])
}

func TestMetricsEndpoint(t *testing.T) {
	mux := NewMux(service.NewState(nil), NewRegistry())
	rec := get(t, mux, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
