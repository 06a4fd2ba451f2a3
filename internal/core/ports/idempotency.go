package ports

import "context"

// IdempotencyStore remembers the result of a mutating command by a
// caller-supplied key so a replay returns the original result.
//
// A command claims its key with Reserve before doing any work and then either
// Completes it with the result or Releases it on failure. Only the caller that
// won the reservation may run the command.
type IdempotencyStore interface {
	// Reserve claims key within scope. When the key is already held it returns
	// reserved=false and the stored result, which is empty while the holder is
	// still working.
	Reserve(ctx context.Context, scope, key string) (value string, reserved bool, err error)
	// Complete stores the result of a reserved key.
	Complete(ctx context.Context, scope, key, value string) error
	// Release frees a reservation that was never completed.
	Release(ctx context.Context, scope, key string) error
}
