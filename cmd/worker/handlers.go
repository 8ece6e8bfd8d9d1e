package main

import (
	"github.com/hibiken/asynq"

	"bookreview-backend/internal/shared"
	"bookreview-backend/pkg/container"
)

// registerHandlers gắn job handler của từng task type vào mux
func registerHandlers(mux *asynq.ServeMux, c *container.Container) {
	// Book covers
	mux.HandleFunc(shared.TypeProcessBookCover, c.ProcessCoverJob.ProcessTask)
	mux.HandleFunc(shared.TypeDeleteBookCover, c.DeleteCoverJob.ProcessTask)

	// Maintenance
	mux.HandleFunc(shared.TypeReconcileCounters, c.ReconcileCountersJob.ProcessTask)
}
