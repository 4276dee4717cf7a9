package ports

import "context"

// Port: a boundary for persisting the application state blob. Backends
// treat the payload as opaque bytes; shape and defaulting belong to the
// state package.
type StateStore interface {
	// Load returns the stored blob, or ok=false when nothing has been
	// saved yet. Absence is not an error.
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte) error
}
