package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"bookreview-backend/pkg/container"
)

// healthStatus là body của /health và /ready
type healthStatus struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Services map[string]string `json:"services,omitempty"`
}

// startHealthServer mở HTTP health check trên WORKER_HEALTH_PORT.
// /health chỉ báo process còn sống; /ready ping Redis (asynq) và PostgreSQL.
func startHealthServer(c *container.Container) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, healthStatus{Status: "UP", Service: "bookreview-worker"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Status: "READY", Service: "bookreview-worker", Services: map[string]string{}}
		code := http.StatusOK

		checks := map[string]func(context.Context) error{
			"redis":    c.Cache.Ping,
			"database": c.DB.HealthCheck,
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status.Services[name] = "error: " + err.Error()
				status.Status = "NOT_READY"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Services[name] = "ok"
		}

		writeHealth(w, code, status)
	})

	srv := &http.Server{
		Addr:              ":" + c.Config.App.WorkerHealthPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Worker health server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Worker health server failed")
		}
	}()

	return srv
}

func writeHealth(w http.ResponseWriter, code int, body healthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
