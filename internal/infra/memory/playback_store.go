package memory

import (
	"sync"

	"overlay-quiz-service/internal/app"
)

// PlaybackStore is an in-memory implementation of app.PlaybackRepository.
type PlaybackStore struct {
	mu        sync.RWMutex
	playbacks map[string]*app.Playback
}

func NewPlaybackStore() *PlaybackStore {
	return &PlaybackStore{
		playbacks: make(map[string]*app.Playback),
	}
}

func (s *PlaybackStore) Add(p *app.Playback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playbacks[p.ID()] = p
}

func (s *PlaybackStore) Get(playbackID string) (*app.Playback, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playbacks[playbackID]
	return p, ok
}

func (s *PlaybackStore) Remove(playbackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playbacks, playbackID)
}

// Len returns the number of live playbacks.
func (s *PlaybackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.playbacks)
}
