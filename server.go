package qslot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server exposes the slot engine over HTTP.
type Server struct {
	engine  *SlotEngine
	manager *BackendManager
	history HistoryStore
	breaker *CircuitBreakerHistory
	config  *Config
	logger  Logger

	router *chi.Mux
	http   *http.Server

	// requestTimeout bounds one request end to end. Derived from the
	// engine's hardware deadline so raising quantum.timeout never gets a
	// spin cut off by the HTTP layer instead of the engine's context.
	requestTimeout time.Duration
}

// NewServer wires the engine into a chi router. history and breaker may be
// nil when Redis is not configured.
func NewServer(
	engine *SlotEngine,
	manager *BackendManager,
	history HistoryStore,
	breaker *CircuitBreakerHistory,
	config *Config,
	logger Logger,
) *Server {
	if logger == nil {
		logger = NewSilentLogger()
	}

	s := &Server{
		engine:         engine,
		manager:        manager,
		history:        history,
		breaker:        breaker,
		config:         config,
		logger:         logger,
		router:         chi.NewRouter(),
		requestTimeout: engine.Timeout() + 20*time.Second,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.requestTimeout))

	// Browser front-ends are served from arbitrary origins.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Post("/spin", s.handleSpin)
	s.router.Get("/info", s.handleInfo)
	s.router.Get("/history", s.handleHistory)
	s.router.Get("/metrics", s.handleMetrics)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start begins serving. It blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("http server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type spinRequestBody struct {
	Theta        *float64 `json:"theta"`
	Entanglement bool     `json:"entanglement"`
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	var body spinRequestBody
	if r.Body != nil {
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&body); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	theta := DefaultTheta
	if body.Theta != nil {
		theta = *body.Theta
	}

	result, err := s.engine.Spin(r.Context(), SpinRequest{
		Theta:    theta,
		Entangle: body.Entanglement,
	})
	if err != nil {
		s.logger.Error("spin failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "spin failed")
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"connection_status": s.manager.State().String(),
		"num_qubits":        NumQubits,
		"shots":             s.engine.Shots(),
		"symbols":           Symbols,
		"randomness_source": s.randomnessSource(),
		"circuit": map[string]any{
			"description": NewCircuitSpec(DefaultTheta, true).Description(),
			"ry_gate": map[string]any{
				"theta_default":        DefaultTheta,
				"probability_of_one":   "sin^2(theta/2)",
				"theta_0":              0.0,
				"theta_pi_probability": 1.0,
			},
		},
		"configuration": map[string]any{
			"fallback_on_busy": s.config.Quantum.FallbackOnBusy,
			"queue_threshold":  s.config.Quantum.QueueThreshold,
			"timeout_seconds":  s.engine.Timeout().Seconds(),
		},
	}

	if backend, ok := s.manager.Info(); ok {
		info["backend"] = backend
	}

	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) randomnessSource() string {
	if s.manager.State() == StateConnected {
		return "quantum_hardware"
	}
	return "simulated_quantum_circuit"
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"message": "Quantum Slot Machine API",
		"version": Version,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondJSON(w, http.StatusOK, map[string]any{
			"enabled": false,
			"records": []SpinRecord{},
		})
		return
	}

	records, err := s.history.RecentSpins(r.Context(), s.config.History.Limit)
	if err != nil {
		s.logger.Error("history query failed: %v", err)
		s.respondError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"records": records,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"engine": s.engine.Monitor().Snapshot(),
	}
	if s.breaker != nil {
		payload["history_breaker"] = s.breaker.Check()
	}
	s.respondJSON(w, http.StatusOK, payload)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
