package queue

import (
	"github.com/hibiken/asynq"
)

// Handlers bundles the worker-side task handlers. Every task type the
// client can enqueue must be wired here or the worker rejects it.
type Handlers struct {
	ArchiveStore asynq.Handler
}

// Mux builds the asynq routing table from the wired handlers.
func (h Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeArchiveStore, h.ArchiveStore)
	return mux
}
