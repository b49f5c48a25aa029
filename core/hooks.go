package core

// Hooks receive synchronous notifications from the dispatcher's commit path.
// Hook functions must not block indefinitely: they run inline and no
// backpressure exists if they do. Nil fields are skipped.
type Hooks struct {
	// OnLogStream is invoked for every thought update (partial and final) and
	// for every finalized record commit. done reports whether the record is
	// final; partial records never touch Chain or WorkingMemory.
	OnLogStream func(record Record, done bool)

	// OnThinking is invoked once per finalized thought, after it has been
	// appended to Chain and WorkingMemory.
	OnThinking func(thought Thought)
}

// EmitLogStream invokes OnLogStream if configured.
func (h Hooks) EmitLogStream(record Record, done bool) {
	if h.OnLogStream != nil {
		h.OnLogStream(record, done)
	}
}

// EmitThinking invokes OnThinking if configured.
func (h Hooks) EmitThinking(thought Thought) {
	if h.OnThinking != nil {
		h.OnThinking(thought)
	}
}
