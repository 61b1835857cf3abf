package httpapi

import (
	"sync/atomic"

	"go.uber.org/zap"

	"receitanet-engine/internal/events"
	"receitanet-engine/internal/store"
)

type Deps struct {
	DB  *store.DB
	Hub *events.Hub

	// Status stores a httpapi.Status.
	Status *atomic.Value

	// Abort cancels the running batch. AbortToken must be sent in the
	// X-Abort-Token header.
	Abort      func()
	AbortToken string

	Log *zap.Logger
}
