package handler

import (
	"github.com/habittrack/internal/db"
	"github.com/habittrack/internal/service"
	"go.uber.org/zap"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	habits  *service.HabitStore
	gate    *service.PasswordGate
	backups *service.BackupService
	logger  *zap.Logger
}

// NewAPI constructs a handler set with shared services on top of the
// injected key-value persistence.
func NewAPI(kv db.KV, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := service.NewHabitStore(kv)
	gate := service.NewPasswordGate(kv)

	return &API{
		habits:  store,
		gate:    gate,
		backups: service.NewBackupService(store, gate, kv),
		logger:  logger,
	}
}
