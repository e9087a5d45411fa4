package store

import "context"

// Store is the storage abstraction over the full application snapshot.
//
// Snapshot returns a deep copy of the current state; callers may read it
// freely but mutations are discarded.
//
// Update runs the mutator against a private copy of the state and, if the
// mutator returns nil, atomically replaces the live state with that copy and
// persists it. Updates are serialized: no two mutators ever observe or
// commit interleaved state.
type Store interface {
	Snapshot(ctx context.Context) (*State, error)
	Update(ctx context.Context, mutator func(*State) error) error
	Ping(ctx context.Context) error
	Close() error
}
