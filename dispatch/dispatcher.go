package dispatch

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/tagflow/action"
	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/logging"
	"github.com/hupe1980/tagflow/output"
	"github.com/hupe1980/tagflow/parser"
)

// Semantic tag names the dispatcher interprets structurally. Any further
// recognized tags are tracked on the stack but commit nothing.
const (
	TagThink      = "think"
	TagReasoning  = "reasoning"
	TagActionCall = "action_call"
	TagOutput     = "output"
)

// DefaultTags returns the tag set covering all semantic tags plus a response
// wrapper. Callers supply their own set at construction; there is no implicit
// global default.
func DefaultTags() []string {
	return []string{TagThink, TagReasoning, TagActionCall, TagOutput, "response"}
}

// Config wires a Dispatcher to one parse session.
type Config struct {
	// SessionID / RunID identify the owning session and run for logging and
	// handler contexts.
	SessionID string
	RunID     string

	// Tags is the recognized tag set. Required.
	Tags []string

	// StartIndex seeds the element sequence counter, enabling index
	// continuity across runs sharing one session counter.
	StartIndex int

	// Chain and Memory receive committed records. Required.
	Chain  *core.Chain
	Memory *core.WorkingMemory

	// Actions resolves action_call elements. Optional; unresolvable calls
	// yield error-carrying results either way.
	Actions *action.Registry

	// Outputs resolves output elements by type attribute. Optional.
	Outputs *output.Registry

	// Episodes receives fire-and-forget episode captures. Optional.
	Episodes core.EpisodeStore

	// Hooks receive synchronous commit-path notifications.
	Hooks core.Hooks

	// Logger defaults to NoOpLogger when nil.
	Logger logging.Logger
}

// Dispatcher converts one chunk stream into committed records. It is bound to
// a single parse session: the scanner, sequencer and sequence counter are
// never shared across concurrent runs. Run may be called once.
type Dispatcher struct {
	sessionID string
	runID     string

	chain    *core.Chain
	memory   *core.WorkingMemory
	actions  *action.Registry
	outputs  *output.Registry
	episodes core.EpisodeStore
	hooks    core.Hooks
	logger   logging.Logger

	scanner *parser.Scanner
	seq     *parser.Sequencer

	ctx     context.Context
	mu      sync.Mutex // guards the commit path
	pending sync.WaitGroup

	thoughts     map[int]core.Thought    // element index -> materialized partial thought
	pendingCalls map[int]core.ActionCall // element index -> materialized partial call
}

// New constructs a Dispatcher for one run.
func New(cfg Config) *Dispatcher {
	if cfg.Actions == nil {
		cfg.Actions = action.NewRegistry()
	}
	if cfg.Outputs == nil {
		cfg.Outputs = output.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}

	d := &Dispatcher{
		sessionID:    cfg.SessionID,
		runID:        cfg.RunID,
		chain:        cfg.Chain,
		memory:       cfg.Memory,
		actions:      cfg.Actions,
		outputs:      cfg.Outputs,
		episodes:     cfg.Episodes,
		hooks:        cfg.Hooks,
		logger:       cfg.Logger,
		scanner:      parser.NewScanner(cfg.Tags),
		thoughts:     make(map[int]core.Thought),
		pendingCalls: make(map[int]core.ActionCall),
	}
	d.seq = parser.NewSequencer(cfg.StartIndex, d.handleElement)

	return d
}

// Run consumes the chunk stream until it closes or ctx is cancelled. Each
// chunk is fully scanned and all its structural effects applied before the
// next chunk is received; detached action executions are the only work that
// outlives a chunk. Returns ctx.Err() on cancellation, nil on end of input.
func (d *Dispatcher) Run(ctx context.Context, chunks <-chan string) error {
	d.ctx = ctx

	for {
		// Checked before the select: a ready chunk must never win a race
		// against an already-signaled cancellation.
		if err := ctx.Err(); err != nil {
			d.logger.Debug("dispatch.run.cancelled", "session_id", d.sessionID, "run_id", d.runID)
			return err
		}
		select {
		case <-ctx.Done():
			d.logger.Debug("dispatch.run.cancelled", "session_id", d.sessionID, "run_id", d.runID)
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				d.seq.HandleAll(d.scanner.Flush())
				return nil
			}
			d.seq.HandleAll(d.scanner.Write(chunk))
		}
	}
}

// Wait blocks until all detached work (action executions, episode captures)
// has completed. Safe to call after Run returns, e.g. during shutdown.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// NextIndex returns the next unassigned element index, for persisting
// sequence continuity on the owning session.
func (d *Dispatcher) NextIndex() int {
	return d.seq.Next()
}

// handleElement keys dispatch on the element's tag and done flag. Only
// done=true triggers commits; partial updates notify hooks for live feedback
// but never touch Chain or WorkingMemory.
func (d *Dispatcher) handleElement(el parser.Element) {
	switch el.Tag {
	case TagThink, TagReasoning:
		d.handleThought(el)
	case TagActionCall:
		d.handleActionCall(el)
	case TagOutput:
		if el.Done {
			d.handleOutput(el)
		}
	default:
		// Recognized but not structurally interpreted by this layer.
	}
}

// handleThought materializes a Thought per element index so its ID stays
// stable across partial updates, and commits it once on done.
func (d *Dispatcher) handleThought(el parser.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()

	th, ok := d.thoughts[el.Index]
	if !ok {
		th = core.NewThought("")
	}
	th.Content = el.Text()

	if !el.Done {
		d.thoughts[el.Index] = th
		d.hooks.EmitLogStream(th, false)
		return
	}

	delete(d.thoughts, el.Index)
	d.chain.Append(th)
	d.memory.AppendThought(th)
	d.hooks.EmitLogStream(th, true)
	d.hooks.EmitThinking(th)

	d.logger.Debug("dispatch.thought.committed",
		"session_id", d.sessionID, "thought_id", th.ID, "index", el.Index)
}

func trimmedText(el parser.Element) string {
	return strings.TrimSpace(el.Text())
}
