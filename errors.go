package offlinesync

import "errors"

// ErrInvalidConfig is returned when the client configuration is invalid.
var ErrInvalidConfig = errors.New("invalid offline-sync configuration")

// ErrUnknownBackend is returned when Config.Storage.Backend names a storage
// backend this build does not know.
var ErrUnknownBackend = errors.New("unknown storage backend")
