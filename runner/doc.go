// Package runner drives a root agent for one chat turn at a time.
//
// # Responsibilities
//   - Run: asynchronous invocation streaming events and a terminal error
//   - RunSync: blocking helper returning the final text and all events
//   - Session transcript persistence (user message plus non-partial events)
//   - Report archiving: the final text of a successful turn is saved as
//     artifact "report-<runID>.md"
//   - Cancellation of in-flight runs by id
//
// Each run gets a fresh RunContext and model call limiter. The transcript is
// written for front-ends only; it is never replayed into the next turn.
package runner
