package qslot

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := NewSilentLogger()
	manager := NewBackendManager(nil, BackendManagerOptions{FallbackOnBusy: true}, logger)
	engine := NewSlotEngine(
		manager,
		nil,
		NewStatevectorSimulator(nil, logger),
		NewOutcomeSampler(nil, logger),
		nil,
		nil,
		NewSpinMonitor(),
		logger,
		EngineOptions{},
	)

	return NewServer(engine, manager, nil, nil, DefaultConfig(), logger)
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "online", payload["status"])
	assert.Equal(t, Version, payload["version"])
}

func TestSpinEndpointDeterministic(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/spin", []byte(`{"theta": 0}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var result SpinResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []int{0, 0, 0}, result.Measurements)
	assert.Equal(t, []string{"🍒", "🍒", "🍒"}, result.Symbols)
	assert.Equal(t, SimulatorName, result.BackendUsed)
	assert.Nil(t, result.QueuePosition)
}

func TestSpinEndpointDefaults(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/spin", []byte(`{}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var result SpinResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, DefaultTheta, result.Theta, 1e-9)
	assert.False(t, result.Entanglement)
	assert.Equal(t, DefaultShots, result.Distribution.Total())
}

func TestSpinEndpointEntanglement(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/spin", []byte(`{"theta": 3.14159265358979, "entanglement": true}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var result SpinResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "101", result.Bitstring)
	assert.True(t, result.Entanglement)
}

func TestSpinEndpointRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/spin", []byte(`{"theta": "not a number"`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInfoEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "unconfigured", payload["connection_status"])
	assert.Equal(t, "simulated_quantum_circuit", payload["randomness_source"])
	assert.Len(t, payload["symbols"], NumOutcomes)
	assert.NotContains(t, payload, "backend")

	circuit, ok := payload["circuit"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, circuit, "ry_gate")
}

func TestHistoryEndpointDisabled(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, false, payload["enabled"])
}

func TestHistoryEndpointReturnsRecords(t *testing.T) {
	logger := NewSilentLogger()
	manager := NewBackendManager(nil, BackendManagerOptions{FallbackOnBusy: true}, logger)
	store := &flakyHistoryStore{records: []SpinRecord{*testSpinRecord("spin-hist")}}
	engine := NewSlotEngine(manager, nil, NewStatevectorSimulator(nil, logger),
		NewOutcomeSampler(nil, logger), store, nil, NewSpinMonitor(), logger, EngineOptions{})
	s := NewServer(engine, manager, store, nil, DefaultConfig(), logger)

	rec := doRequest(t, s, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Enabled bool         `json:"enabled"`
		Records []SpinRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Enabled)
	require.Len(t, payload.Records, 1)
	assert.Equal(t, "spin-hist", payload.Records[0].ID)
}

func TestServerTimeoutsTrackEngineDeadline(t *testing.T) {
	logger := NewSilentLogger()
	manager := NewBackendManager(nil, BackendManagerOptions{FallbackOnBusy: true}, logger)
	engine := NewSlotEngine(manager, nil, NewStatevectorSimulator(nil, logger),
		NewOutcomeSampler(nil, logger), nil, nil, NewSpinMonitor(), logger,
		EngineOptions{Timeout: 600 * time.Second})

	s := NewServer(engine, manager, nil, nil, DefaultConfig(), logger)

	assert.Greater(t, s.requestTimeout, engine.Timeout(),
		"request timeout must leave the engine's context in charge of the deadline")
	assert.Greater(t, s.http.WriteTimeout, s.requestTimeout)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	// Produce some traffic first.
	doRequest(t, s, http.MethodPost, "/spin", []byte(`{"theta": 0}`))

	rec := doRequest(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Engine SpinMetrics `json:"engine"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.EqualValues(t, 1, payload.Engine.TotalSpins)
}
