package qslot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRuntimeBaseURL = "https://api.quantum-computing.ibm.com/runtime"

// jobPollInterval is the delay between result polls for a submitted job.
const jobPollInterval = 2 * time.Second

// RuntimeClient talks to an IBM Quantum Runtime-style REST API. Circuits are
// serialized as OpenQASM 3 and executed through the sampler primitive; the
// service returns quasi-probability distributions.
type RuntimeClient struct {
	baseURL      string
	token        string
	http         *http.Client
	logger       Logger
	pollInterval time.Duration
}

// NewRuntimeClient creates a client authenticating with the given API token.
func NewRuntimeClient(token string, logger Logger) *RuntimeClient {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &RuntimeClient{
		baseURL:      defaultRuntimeBaseURL,
		token:        token,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		pollInterval: jobPollInterval,
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *RuntimeClient) WithBaseURL(url string) *RuntimeClient {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

type runtimeBackend struct {
	Name        string `json:"name"`
	NumQubits   int    `json:"num_qubits"`
	Operational bool   `json:"operational"`
	PendingJobs int    `json:"pending_jobs"`
	Simulator   bool   `json:"simulator"`
}

// ListBackends returns the account's available backends.
func (c *RuntimeClient) ListBackends(ctx context.Context) ([]BackendInfo, error) {
	var payload struct {
		Devices []runtimeBackend `json:"devices"`
	}
	if err := c.getJSON(ctx, "/backends", &payload); err != nil {
		return nil, err
	}

	backends := make([]BackendInfo, 0, len(payload.Devices))
	for _, d := range payload.Devices {
		backends = append(backends, BackendInfo(d))
	}
	return backends, nil
}

// BackendStatus returns the live queue state of one backend.
func (c *RuntimeClient) BackendStatus(ctx context.Context, name string) (BackendInfo, error) {
	var d runtimeBackend
	if err := c.getJSON(ctx, "/backends/"+name+"/status", &d); err != nil {
		return BackendInfo{}, err
	}
	if d.Name == "" {
		d.Name = name
	}
	return BackendInfo(d), nil
}

// RunSampler submits the circuit to the sampler primitive and polls until
// the job completes, fails, or ctx expires. Transpilation happens remotely.
func (c *RuntimeClient) RunSampler(ctx context.Context, backend string, spec CircuitSpec, shots int) (map[string]float64, error) {
	jobID, err := c.submitJob(ctx, backend, spec, shots)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("submitted sampler job %s to %s", jobID, backend)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrExecutionTimeout.WithCause(ctx.Err()).WithDetails(jobID)
		case <-ticker.C:
		}

		status, err := c.jobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrExecutionTimeout.WithCause(ctx.Err()).WithDetails(jobID)
			}
			return nil, ErrResultFailed.WithCause(err).WithDetails(jobID)
		}

		switch status {
		case "Completed":
			return c.jobResult(ctx, jobID)
		case "Failed", "Cancelled":
			return nil, ErrJobFailed.WithDetails(fmt.Sprintf("job %s ended as %s", jobID, status))
		}
	}
}

func (c *RuntimeClient) submitJob(ctx context.Context, backend string, spec CircuitSpec, shots int) (string, error) {
	body := map[string]any{
		"program_id": "sampler",
		"backend":    backend,
		"params": map[string]any{
			"circuits": []string{openQASM(spec)},
			"shots":    shots,
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/jobs", body, &resp); err != nil {
		return "", ErrSubmissionFailed.WithCause(err)
	}
	if resp.ID == "" {
		return "", ErrSubmissionFailed.WithDetails("service returned no job id")
	}
	return resp.ID, nil
}

func (c *RuntimeClient) jobStatus(ctx context.Context, jobID string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/jobs/"+jobID, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *RuntimeClient) jobResult(ctx context.Context, jobID string) (map[string]float64, error) {
	var resp struct {
		QuasiDists []map[string]float64 `json:"quasi_dists"`
	}
	if err := c.getJSON(ctx, "/jobs/"+jobID+"/results", &resp); err != nil {
		return nil, ErrResultFailed.WithCause(err).WithDetails(jobID)
	}
	if len(resp.QuasiDists) == 0 {
		return nil, ErrResultFailed.WithDetails("result carried no distributions")
	}
	return resp.QuasiDists[0], nil
}

func (c *RuntimeClient) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *RuntimeClient) postJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *RuntimeClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// openQASM renders the circuit as an OpenQASM 3 program.
func openQASM(spec CircuitSpec) string {
	var b strings.Builder
	b.WriteString("OPENQASM 3.0;\n")
	b.WriteString("include \"stdgates.inc\";\n")
	fmt.Fprintf(&b, "qubit[%d] q;\n", NumQubits)
	fmt.Fprintf(&b, "bit[%d] c;\n", NumQubits)
	for i := 0; i < NumQubits; i++ {
		fmt.Fprintf(&b, "ry(%.12f) q[%d];\n", spec.Theta, i)
	}
	if spec.Entangle {
		b.WriteString("cx q[0], q[1];\n")
		b.WriteString("cx q[1], q[2];\n")
	}
	b.WriteString("c = measure q;\n")
	return b.String()
}
