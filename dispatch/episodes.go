package dispatch

import "github.com/hupe1980/tagflow/core"

// maybeRecordEpisode fires the episodic memory trigger when, at the moment a
// result commits, working memory already holds at least one thought and one
// call. The most recent of each by position is captured, which is a
// positional approximation rather than a causal match to this result.
//
// Capture is fire-and-forget: failures are logged only, never retried, never
// surfaced to the caller. The goroutine is tracked so Wait covers it.
func (d *Dispatcher) maybeRecordEpisode(
	res core.ActionResult,
	thought core.Thought, haveThought bool,
	call core.ActionCall, haveCall bool,
) {
	if d.episodes == nil || !haveThought || !haveCall {
		return
	}

	ep := core.Episode{
		SessionID: d.sessionID,
		Thought:   thought,
		Call:      call,
		Result:    res,
	}

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		if err := d.episodes.RecordEpisode(d.ctx, ep); err != nil {
			d.logger.Warn("dispatch.episode.record_failed",
				"session_id", d.sessionID,
				"result_id", res.ID,
				"error", err.Error(),
			)
		} else {
			d.logger.Debug("dispatch.episode.recorded",
				"session_id", d.sessionID, "result_id", res.ID)
		}
	}()
}
