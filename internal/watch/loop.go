package watch

import (
	"context"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// Loop calls run once for every change received until ctx is done. Runs
// never overlap; changes that arrive during a run are coalesced into one
// follow-up run.
func Loop(ctx context.Context, changes <-chan Change, run func(context.Context, Change)) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			change = drain(changes, change)
			logging.Info("Watch", "%s changed (%s)", change.Path, change.Operation)
			run(ctx, change)
		}
	}
}

// drain returns the latest change already queued, or last.
func drain(changes <-chan Change, last Change) Change {
	for {
		select {
		case c := <-changes:
			last = c
		default:
			return last
		}
	}
}
