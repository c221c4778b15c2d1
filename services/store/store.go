package store

import (
	"garimpeiro/ofertaworker/pkg/errors"
)

// Store persists the identifiers of deals already announced. The set is
// append-only and grows monotonically; nothing prunes it.
type Store interface {
	// Load returns every announced identifier.
	Load() (map[string]struct{}, error)

	// Append records one newly announced identifier.
	Append(id string) error

	// Close releases any underlying resources.
	Close() error
}

// New creates a store for the configured backend.
func New(backend, path string) (Store, error) {
	switch backend {
	case "file":
		return NewFileStore(path)
	case "bbolt":
		return NewBoltStore(path)
	default:
		return nil, errors.NewConfiguration("unknown store backend: "+backend, nil)
	}
}
