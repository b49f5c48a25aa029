package core

import "context"

// Episode is a captured thought/call/result triple recorded for later recall.
// The thought and call are the most recent of each by position at the moment
// the result commits; they are not causally matched to the result.
type Episode struct {
	SessionID string       `json:"session_id"`
	Thought   Thought      `json:"thought"`
	Call      ActionCall   `json:"call"`
	Result    ActionResult `json:"result"`
}

// EpisodeStore defines persistence + retrieval for episodic memory.
// Implementations can back search with embeddings, keywords or any heuristic.
// RecordEpisode is invoked fire-and-forget from the commit path: it should
// respect ctx and return promptly; failures are logged by the caller, never
// retried.
type EpisodeStore interface {
	RecordEpisode(ctx context.Context, ep Episode) error
	Search(sessionID string, query string, limit int) ([]Episode, error)
}
