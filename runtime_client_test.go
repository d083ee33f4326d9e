package qslot

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntimeTestServer(t *testing.T, statusSequence []string) (*httptest.Server, *[]string) {
	t.Helper()

	var submitted []string
	statusIdx := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/backends", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"devices": []map[string]any{
				{"name": "ibm_test", "num_qubits": 27, "operational": true, "pending_jobs": 3},
			},
		})
	})
	mux.HandleFunc("/backends/ibm_test/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "ibm_test", "num_qubits": 27, "operational": true, "pending_jobs": 3,
		})
	})
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProgramID string `json:"program_id"`
			Backend   string `json:"backend"`
			Params    struct {
				Circuits []string `json:"circuits"`
				Shots    int      `json:"shots"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		submitted = body.Params.Circuits
		assert.Equal(t, "sampler", body.ProgramID)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	})
	mux.HandleFunc("/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		status := statusSequence[statusIdx]
		if statusIdx < len(statusSequence)-1 {
			statusIdx++
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("/jobs/job-1/results", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"quasi_dists": []map[string]float64{{"000": 0.55, "111": 0.45}},
		})
	})

	return httptest.NewServer(mux), &submitted
}

func newFastClient(url string) *RuntimeClient {
	c := NewRuntimeClient("test-token", NewSilentLogger()).WithBaseURL(url)
	c.pollInterval = 5 * time.Millisecond
	return c
}

func TestRuntimeListBackends(t *testing.T) {
	srv, _ := newRuntimeTestServer(t, []string{"Completed"})
	defer srv.Close()

	backends, err := newFastClient(srv.URL).ListBackends(context.Background())
	require.NoError(t, err)
	require.Len(t, backends, 1)
	assert.Equal(t, "ibm_test", backends[0].Name)
	assert.Equal(t, 27, backends[0].NumQubits)
}

func TestRuntimeRunSamplerCompletes(t *testing.T) {
	srv, submitted := newRuntimeTestServer(t, []string{"Queued", "Running", "Completed"})
	defer srv.Close()

	quasi, err := newFastClient(srv.URL).RunSampler(
		context.Background(), "ibm_test", NewCircuitSpec(math.Pi/2, true), DefaultShots)
	require.NoError(t, err)
	assert.InDelta(t, 0.55, quasi["000"], 1e-9)

	require.Len(t, *submitted, 1)
	program := (*submitted)[0]
	assert.True(t, strings.HasPrefix(program, "OPENQASM 3.0;"))
	assert.Contains(t, program, "cx q[0], q[1];")
	assert.Contains(t, program, "c = measure q;")
}

func TestRuntimeRunSamplerJobFailure(t *testing.T) {
	srv, _ := newRuntimeTestServer(t, []string{"Failed"})
	defer srv.Close()

	_, err := newFastClient(srv.URL).RunSampler(
		context.Background(), "ibm_test", NewCircuitSpec(math.Pi/2, false), DefaultShots)
	assert.ErrorIs(t, err, ErrJobFailed)
}

func TestRuntimeRunSamplerTimeout(t *testing.T) {
	srv, _ := newRuntimeTestServer(t, []string{"Queued"})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newFastClient(srv.URL).RunSampler(
		ctx, "ibm_test", NewCircuitSpec(math.Pi/2, false), DefaultShots)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestRuntimeSubmissionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newFastClient(srv.URL).RunSampler(
		context.Background(), "ibm_test", NewCircuitSpec(math.Pi/2, false), DefaultShots)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
}

func TestOpenQASMOmitsEntanglerWhenDisabled(t *testing.T) {
	program := openQASM(NewCircuitSpec(1.25, false))
	assert.NotContains(t, program, "cx")
	assert.Contains(t, program, "ry(1.250000000000) q[2];")
}
