package service

import "context"

// Optimistic describes a local change that is shown before the remote call
// confirms it.
type Optimistic[S any] struct {
	// Snapshot captures the state to restore on failure.
	Snapshot func() S
	// Apply makes the local change.
	Apply func()
	// Commit performs the remote call.
	Commit func(ctx context.Context) error
	// Restore puts the snapshot back.
	Restore func(S)
}

// WithRollback snapshots, applies, then commits. If Commit fails the
// snapshot is restored and the commit error returned.
func WithRollback[S any](ctx context.Context, tx Optimistic[S]) error {
	snap := tx.Snapshot()
	tx.Apply()
	if err := tx.Commit(ctx); err != nil {
		tx.Restore(snap)
		return err
	}
	return nil
}
