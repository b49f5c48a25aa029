package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/tagflow/action"
	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/dispatch"
	"github.com/hupe1980/tagflow/episodic"
	"github.com/hupe1980/tagflow/logging"
	"github.com/hupe1980/tagflow/model"
	"github.com/hupe1980/tagflow/output"
	"github.com/hupe1980/tagflow/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Tags is the recognized tag set handed to the parser.
	Tags []string
	// ChunkBufferSize sets channel buffering between source and dispatcher.
	ChunkBufferSize int
	// Session persistence.
	SessionStore core.SessionStore
	// Episodic memory capture.
	EpisodeStore core.EpisodeStore
	// Action definitions available to runs.
	Actions *action.Registry
	// Output handlers available to runs.
	Outputs *output.Registry
	// Streaming hooks invoked during runs.
	Hooks core.Hooks
	// Logging services.
	Logger logging.Logger
}

// Runner coordinates run execution: resolves the session, wires a dispatcher
// over the chunk stream, persists the advanced sequence, and manages
// cancellation. Public methods are safe for concurrent use.
type Runner struct {
	tags            []string
	chunkBufferSize int

	sessionStore core.SessionStore
	episodeStore core.EpisodeStore
	actions      *action.Registry
	outputs      *output.Registry
	hooks        core.Hooks
	logger       logging.Logger

	activeRuns map[string]context.CancelFunc
	runs       sync.WaitGroup
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Tags:            dispatch.DefaultTags(),
		ChunkBufferSize: 64,
		SessionStore:    session.NewInMemoryStore(),
		EpisodeStore:    episodic.NewInMemoryStore(),
		Actions:         action.NewRegistry(),
		Outputs:         output.NewRegistry(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		tags:            opts.Tags,
		chunkBufferSize: opts.ChunkBufferSize,
		sessionStore:    opts.SessionStore,
		episodeStore:    opts.EpisodeStore,
		actions:         opts.Actions,
		outputs:         opts.Outputs,
		hooks:           opts.Hooks,
		logger:          opts.Logger,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// Run starts an asynchronous run fed by a model stream source. It returns the
// run ID and an error channel that closes once the run has fully settled,
// detached action executions and episode captures included.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	source model.StreamSource,
	req model.Request,
) (string, <-chan error, error) {
	chunks := make(chan string, r.chunkBufferSize)

	runID, errorsCh, runCtx, err := r.startRun(ctx, sessionID, chunks)
	if err != nil {
		return "", nil, err
	}

	info := source.Info()
	r.logger.Info("runner.run.started",
		"run_id", runID, "session_id", sessionID,
		"provider", info.Provider, "model", info.Name,
	)

	srcChunks, srcErrs := source.Stream(runCtx, req)

	go func() {
		defer close(chunks)
		for {
			select {
			case <-runCtx.Done():
				return
			case chunk, ok := <-srcChunks:
				if !ok {
					return
				}
				select {
				case <-runCtx.Done():
					return
				case chunks <- chunk:
				}
			}
		}
	}()

	go func() {
		if err, ok := <-srcErrs; ok && err != nil {
			r.logger.Error("runner.source.failed",
				"run_id", runID, "session_id", sessionID, "error", err.Error())
		}
	}()

	return runID, errorsCh, nil
}

// RunChunks starts an asynchronous run over a caller-supplied chunk stream,
// bypassing model invocation entirely.
func (r *Runner) RunChunks(
	ctx context.Context,
	sessionID string,
	chunks <-chan string,
) (string, <-chan error, error) {
	runID, errorsCh, _, err := r.startRun(ctx, sessionID, chunks)
	if err != nil {
		return "", nil, err
	}
	return runID, errorsCh, nil
}

// startRun wires a dispatcher over the chunk stream and launches the run
// goroutine. The returned context governs the run and is cancelled when the
// run settles.
func (r *Runner) startRun(
	ctx context.Context,
	sessionID string,
	chunks <-chan string,
) (string, <-chan error, context.Context, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID := core.NewID()
	errorsCh := make(chan error, 1)

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	d := dispatch.New(dispatch.Config{
		SessionID:  sessionID,
		RunID:      runID,
		Tags:       r.tags,
		StartIndex: sess.Sequence(),
		Chain:      sess.Chain,
		Memory:     sess.Memory,
		Actions:    r.actions,
		Outputs:    r.outputs,
		Episodes:   r.episodeStore,
		Hooks:      r.hooks,
		Logger:     r.logger,
	})

	r.runs.Add(1)
	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			// Closing last: a drained error channel means the run has fully
			// settled and deregistered.
			close(errorsCh)
			r.runs.Done()
		}()

		runErr := d.Run(runCtx, chunks)

		// Detached executions and episode captures must settle before the
		// sequence advances and the session persists.
		d.Wait()

		sess.AdvanceSequence(d.NextIndex())
		if err := r.sessionStore.Save(sess); err != nil {
			r.logger.Error("runner.session.save_failed",
				"run_id", runID, "session_id", sessionID, "error", err.Error())
			if runErr == nil {
				runErr = fmt.Errorf("failed to save session: %w", err)
			}
		}

		if runErr != nil {
			errorsCh <- runErr
			return
		}

		r.logger.Info("runner.run.completed",
			"run_id", runID, "session_id", sessionID,
			"records", sess.Chain.Len(), "next_index", sess.Sequence(),
		)
	}()

	return runID, errorsCh, runCtx, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// Wait blocks until every run started by this Runner has settled.
func (r *Runner) Wait() { r.runs.Wait() }
