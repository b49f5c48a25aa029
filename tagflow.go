// Package tagflow provides a high-level façade over the runner and service
// abstractions (sessions, episodic memory, actions, outputs & logging)
// enabling rapid construction of streaming tag-dispatch systems. Most
// applications interact with this package by:
//  1. Creating a TagFlow via New() (optionally overriding default in-memory services)
//  2. Registering actions and output handlers
//  3. Processing chunk streams asynchronously (Run) or synchronously (Process)
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable store
// implementations and a structured logger.
package tagflow

import (
	"context"

	"github.com/hupe1980/tagflow/action"
	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/dispatch"
	"github.com/hupe1980/tagflow/episodic"
	"github.com/hupe1980/tagflow/logging"
	"github.com/hupe1980/tagflow/model"
	"github.com/hupe1980/tagflow/output"
	"github.com/hupe1980/tagflow/runner"
	"github.com/hupe1980/tagflow/session"
)

// Options configures the TagFlow instance.
type Options struct {
	// Tags is the recognized tag set. Defaults to dispatch.DefaultTags().
	Tags []string

	// ChunkBufferSize sets channel buffering between sources and dispatchers.
	// Larger buffers reduce blocking but increase memory usage.
	ChunkBufferSize int

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore core.SessionStore
	EpisodeStore core.EpisodeStore

	// Hooks receive synchronous streaming notifications during runs.
	Hooks core.Hooks

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TagFlow is the high-level façade aggregating the runner and its services.
type TagFlow struct {
	opts    Options
	actions *action.Registry
	outputs *output.Registry
	runner  *runner.Runner
}

// New creates a new TagFlow instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *TagFlow {
	opts := Options{
		Tags:            dispatch.DefaultTags(),
		ChunkBufferSize: 64,
		SessionStore:    session.NewInMemoryStore(),
		EpisodeStore:    episodic.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	actions := action.NewRegistry()
	outputs := output.NewRegistry()

	r := runner.New(func(o *runner.Options) {
		o.Tags = opts.Tags
		o.ChunkBufferSize = opts.ChunkBufferSize
		o.SessionStore = opts.SessionStore
		o.EpisodeStore = opts.EpisodeStore
		o.Actions = actions
		o.Outputs = outputs
		o.Hooks = opts.Hooks
		o.Logger = opts.Logger
	})

	return &TagFlow{opts: opts, actions: actions, outputs: outputs, runner: r}
}

// RegisterAction adds an action definition to the shared registry.
func (t *TagFlow) RegisterAction(a action.Action) { t.actions.Register(a) }

// RegisterOutput adds an output handler to the shared registry.
func (t *TagFlow) RegisterOutput(h output.Handler) { t.outputs.Register(h) }

// Run starts an asynchronous run fed by a model stream source.
func (t *TagFlow) Run(
	ctx context.Context,
	sessionID string,
	source model.StreamSource,
	req model.Request,
) (string, <-chan error, error) {
	return t.runner.Run(ctx, sessionID, source, req)
}

// RunChunks starts an asynchronous run over a caller-supplied chunk stream.
func (t *TagFlow) RunChunks(
	ctx context.Context,
	sessionID string,
	chunks <-chan string,
) (string, <-chan error, error) {
	return t.runner.RunChunks(ctx, sessionID, chunks)
}

// Process is a synchronous helper: it feeds the given text through a run as a
// single chunk, waits for the run to settle, and returns the records the run
// committed to the session chain.
func (t *TagFlow) Process(ctx context.Context, sessionID, text string) ([]core.Record, error) {
	sess, err := t.opts.SessionStore.Get(sessionID)
	if err != nil {
		return nil, err
	}
	before := sess.Chain.Len()

	chunks := make(chan string, 1)
	chunks <- text
	close(chunks)

	runID, errorsCh, err := t.runner.RunChunks(ctx, sessionID, chunks)
	if err != nil {
		return nil, err
	}

	// The error channel closes once the run has fully settled.
	var runErr error
	for err := range errorsCh {
		if err != nil && runErr == nil {
			runErr = err
		}
	}

	records := sess.Chain.Records()
	if before > len(records) {
		before = len(records)
	}
	t.opts.Logger.Debug("tagflow.process.completed",
		"run_id", runID, "session_id", sessionID, "records", len(records)-before)

	return records[before:], runErr
}

// Cancel cancels a running run by ID.
func (t *TagFlow) Cancel(runID string) error { return t.runner.Cancel(runID) }

// Wait blocks until every run started through this instance has settled.
func (t *TagFlow) Wait() { t.runner.Wait() }
