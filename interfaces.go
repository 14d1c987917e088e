package offlinesync

import (
	"github.com/glamflow/offline-sync/queue"
	"github.com/glamflow/offline-sync/types"
)

// Logger is an alias for types.Logger.
type Logger = types.Logger

// Session is an alias for types.Session.
type Session = types.Session

// User is an alias for types.User.
type User = types.User

// Create is an alias for queue.Create.
type Create = queue.Create

// Update is an alias for queue.Update.
type Update = queue.Update

// Delete is an alias for queue.Delete.
type Delete = queue.Delete

// ReplayResult is an alias for queue.ReplayResult.
type ReplayResult = queue.ReplayResult

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() Logger {
	return types.NewNoOpLogger()
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(prefix string) Logger {
	return types.NewConsoleLogger(prefix)
}
