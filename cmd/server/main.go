package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kydenul/qslot"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	logger := qslot.NewZerologLogger(os.Getenv("QSLOT_LOG_LEVEL"), os.Getenv("QSLOT_LOG_PRETTY") == "true")

	cm := qslot.NewConfigManager()
	cfg, err := cm.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}

	var (
		history qslot.HistoryStore
		breaker *qslot.CircuitBreakerHistory
		lock    *qslot.SubmissionLock
	)
	if cfg.History.Enabled {
		redisClient := qslot.NewRedisClientFromConfig(cfg.Redis)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr := redisClient.Ping(pingCtx).Err()
		cancel()

		if pingErr != nil {
			logger.Error("redis unreachable, running without history or submission lock: %v", pingErr)
		} else {
			spinHistory := qslot.NewSpinHistory(redisClient, cfg.History.TTL, logger)
			breaker = qslot.NewCircuitBreakerHistory(spinHistory, cfg.CircuitBreaker, logger)
			history = breaker
			lock = qslot.NewSubmissionLock(redisClient, "hardware-submission", 0, logger)
			logger.Info("spin history enabled (ttl=%v)", cfg.History.TTL)
		}
	}

	var client qslot.QuantumClient
	if cfg.Quantum.Token != "" {
		client = qslot.NewRuntimeClient(cfg.Quantum.Token, logger)
	}

	manager := qslot.NewBackendManager(client, qslot.BackendManagerOptions{
		PreferredBackend: cfg.Quantum.Backend,
		QueueThreshold:   cfg.Quantum.QueueThreshold,
		FallbackOnBusy:   cfg.Quantum.FallbackOnBusy,
	}, logger)

	engine := qslot.NewSlotEngine(
		manager,
		client,
		qslot.NewStatevectorSimulator(nil, logger),
		qslot.NewOutcomeSampler(nil, logger),
		history,
		lock,
		qslot.NewSpinMonitor(),
		logger,
		qslot.EngineOptions{
			Shots:   cfg.Quantum.Shots,
			Timeout: cfg.Quantum.Timeout,
		},
	)

	// Resolve the hardware backend up front so the first spin does not pay
	// the connection cost. Failure here is non-fatal; the manager degrades
	// to the simulator on its own.
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	manager.Connect(connectCtx)
	connectCancel()

	server := qslot.NewServer(engine, manager, history, breaker, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error: %v", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed: %v", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
