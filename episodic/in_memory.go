package episodic

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/sjson"

	"github.com/hupe1980/tagflow/core"
)

// storedEpisode pairs the episode with a flattened text document used for
// substring search.
type storedEpisode struct {
	episode core.Episode
	doc     string
}

// InMemoryStore is a naive process-local EpisodeStore. It offers session
// scoped append-only episode capture with substring Search over a flattened
// JSON document of each episode.
//
// Concurrency: protected by RWMutex.
// Search: linear scan with substring matching (case insensitive). Suitable
// only for tests / demos; swap for a vector DB or semantic index for
// production recall.
type InMemoryStore struct {
	mu       sync.RWMutex
	episodes map[string][]storedEpisode // sessionID -> ordered episodes
}

// NewInMemoryStore creates a new in-memory episode store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{episodes: make(map[string][]storedEpisode)}
}

// RecordEpisode appends the episode to the session's history. The ctx is
// consulted so an already-cancelled fire-and-forget capture becomes a no-op.
func (s *InMemoryStore) RecordEpisode(ctx context.Context, ep core.Episode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes[ep.SessionID] = append(s.episodes[ep.SessionID], storedEpisode{
		episode: ep,
		doc:     episodeDoc(ep),
	})
	return nil
}

// Search returns up to limit episodes whose flattened document contains the
// query (case insensitive), in capture order. An empty query matches all.
func (s *InMemoryStore) Search(sessionID string, query string, limit int) ([]core.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.episodes[sessionID]
	needle := strings.ToLower(query)

	results := make([]core.Episode, 0, limit)
	for _, se := range stored {
		if limit > 0 && len(results) >= limit {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(se.doc), needle) {
			results = append(results, se.episode)
		}
	}
	return results, nil
}

// Len returns the number of captured episodes for a session.
func (s *InMemoryStore) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.episodes[sessionID])
}

// episodeDoc flattens the searchable parts of an episode into one JSON
// document. Result data values are indexed by key path.
func episodeDoc(ep core.Episode) string {
	doc := "{}"
	doc, _ = sjson.Set(doc, "thought", ep.Thought.Content)
	doc, _ = sjson.Set(doc, "action", ep.Call.Name)
	doc, _ = sjson.Set(doc, "args", ep.Call.Content)
	for k, v := range ep.Result.Data {
		doc, _ = sjson.Set(doc, "result."+k, v)
	}
	return doc
}
