// Package runonce provides the single-execution barrier used by the
// redundant executor cohort: a named step runs on exactly one member and
// its result is shared verbatim with everyone else.
package runonce

import "context"

// Barrier executes fn at most once per name across the cohort.
// Every caller receives the byte-identical result (or the same error).
// Names must be scoped to one invocation by the caller, e.g.
// "transfer:<invocation-id>:gasPriceGetter".
type Barrier interface {
	Do(ctx context.Context, name string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error)
}
