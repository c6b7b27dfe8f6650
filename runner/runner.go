package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/deepresearch/artifact"
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/session"
)

// ErrRunNotFound is returned by Cancel for unknown or finished runs.
var ErrRunNotFound = errors.New("run not found")

var _ core.Runner = (*Runner)(nil)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run (0 = unlimited).
	MaxModelCalls int
	// SessionStore receives the transcript of every run.
	SessionStore core.SessionStore
	// ArtifactStore receives the final report of every successful run. Nil
	// disables report archiving.
	ArtifactStore core.ArtifactStore
	// Logger for runner lifecycle events.
	Logger logging.Logger
}

// Result is the outcome of RunSync.
type Result struct {
	RunID    string
	Output   string
	ReportID string
	Events   []core.Event
}

// Runner coordinates agent execution: creates run contexts, streams events,
// persists history and archives reports. Public methods are safe for
// concurrent use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	logger        logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		ArtifactStore:   artifact.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.EventBufferSize < 0 {
		opts.EventBufferSize = 0
	}

	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		sessionStore:    opts.SessionStore,
		artifactStore:   opts.ArtifactStore,
		logger:          opts.Logger,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// SessionStore returns the store receiving run transcripts.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// ArtifactStore returns the report store, nil when archiving is disabled.
func (r *Runner) ArtifactStore() core.ArtifactStore { return r.artifactStore }

// Run starts an asynchronous invocation. The events channel is closed when
// the run ends; the errors channel then yields at most one error and closes.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID := core.NewID()

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)

	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	runCtx := core.NewRunContext(
		ctx,
		sessionID,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: "root"},
		userContent,
		r.maxModelCalls,
		agentEmit,
		sess,
		r.logger,
	)

	r.logger.Info("runner.run.start", "run_id", runID, "session_id", sessionID, "agent", r.agent.Name())

	agentDone := make(chan error, 1)

	go func() {
		defer close(agentEmit)

		agentDone <- r.agent.Run(runCtx)
	}()

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			cancel()
			close(eventsCh)
			close(errorsCh)
		}()

		final, persistErr := r.processEvents(ctx, sessionID, agentEmit, eventsCh)

		runErr := <-agentDone
		if runErr == nil {
			runErr = persistErr
		}

		if runErr == nil {
			runErr = r.saveReport(sessionID, runID, final)
		}

		if runErr != nil {
			r.logger.Error("runner.run.error", "run_id", runID, "session_id", sessionID, "error", runErr.Error())
			errorsCh <- runErr
			return
		}

		r.logger.Info("runner.run.complete", "run_id", runID, "session_id", sessionID)
	}()

	return runID, eventsCh, errorsCh, nil
}

// RunSync executes a run and blocks until it finishes. Agent errors are
// returned unwrapped so callers can match sentinels with errors.Is.
func (r *Runner) RunSync(ctx context.Context, sessionID, input string) (*Result, error) {
	runID, eventsCh, errorsCh, err := r.Run(ctx, sessionID, core.NewTextContent("user", input))
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID}
	for ev := range eventsCh {
		res.Events = append(res.Events, ev)
	}

	if err := <-errorsCh; err != nil {
		return res, err
	}

	res.Output = core.FinalText(res.Events)
	if r.artifactStore != nil && res.Output != "" {
		res.ReportID = artifact.ReportID(runID)
	}

	return res, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	return nil
}

// processEvents persists and forwards agent events until agentEmit closes.
// After cancellation events are still drained so the agent goroutine never
// blocks, but they are no longer forwarded.
func (r *Runner) processEvents(
	ctx context.Context,
	sessionID string,
	agentEmit <-chan core.Event,
	eventsCh chan<- core.Event,
) (string, error) {
	var (
		final      string
		persistErr error
	)

	for ev := range agentEmit {
		if !ev.IsPartial() {
			if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil && persistErr == nil {
				r.logger.Warn("runner.event.persist.error", "event_id", ev.ID, "session_id", sessionID, "error", err.Error())
				persistErr = fmt.Errorf("failed to append event to session: %w", err)
			}

			if ev.IsFinalResponse() {
				final = ev.Text()
			}
		}

		if ctx.Err() != nil {
			continue
		}

		select {
		case <-ctx.Done():
		case eventsCh <- ev:
			r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session_id", sessionID)
		}
	}

	return final, persistErr
}

func (r *Runner) saveReport(sessionID, runID, final string) error {
	if r.artifactStore == nil || final == "" {
		return nil
	}

	id := artifact.ReportID(runID)
	if err := r.artifactStore.Save(sessionID, id, []byte(final)); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Debug("runner.report.saved", "artifact_id", id, "session_id", sessionID)

	return nil
}
