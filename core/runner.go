package core

import "context"

// Runner drives a root agent for one chat message at a time.
//
// Events of a run arrive in the order the agent produced them. The events
// channel closes once the run ends; the error channel carries at most one
// terminal error and then closes. Partial events are streamed to the caller
// but never persisted to the session.
type Runner interface {
	// Run starts the root agent on userContent within sessionID and returns
	// the run id together with the event and error streams. The error return
	// covers failures before the agent started, such as an unusable session.
	Run(ctx context.Context, sessionID string, userContent Content) (string, <-chan Event, <-chan error, error)

	// Cancel stops an in-flight run. Unknown or finished runs yield an error.
	Cancel(runID string) error
}
