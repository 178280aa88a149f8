package redis

import (
	"context"
	"sync"
	"time"

	"overlay-quiz-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// PlaybackStore is a Redis-aware implementation of app.PlaybackRepository.
// Notes:
//   - Synchronizers hold timers and locks, so playbacks stay in a local map.
//   - Redis carries a liveness marker per playback (value = video id) so other
//     instances and ops tooling can see which videos are being watched.
//   - Every Get counts as activity and pushes the marker's TTL out again, at
//     most once per quarter TTL, so only idle playbacks expire.
type PlaybackStore struct {
	client    *redis.Client
	ttl       time.Duration
	mu        sync.RWMutex
	playbacks map[string]*app.Playback
	touched   map[string]time.Time
	clock     func() time.Time
}

func NewPlaybackStore(client *redis.Client, ttl time.Duration) *PlaybackStore {
	return &PlaybackStore{
		client:    client,
		ttl:       ttl,
		playbacks: make(map[string]*app.Playback),
		touched:   make(map[string]time.Time),
		clock:     time.Now,
	}
}

func (s *PlaybackStore) Add(p *app.Playback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playbacks[p.ID()] = p
	s.touched[p.ID()] = s.clock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(p.ID()), p.VideoID(), s.ttl).Err()
}

func (s *PlaybackStore) Get(playbackID string) (*app.Playback, bool) {
	s.mu.RLock()
	p, ok := s.playbacks[playbackID]
	s.mu.RUnlock()
	if ok {
		s.touch(p)
	}
	return p, ok
}

func (s *PlaybackStore) touch(p *app.Playback) {
	now := s.clock()
	s.mu.Lock()
	last, ok := s.touched[p.ID()]
	if !ok || now.Sub(last) < s.ttl/4 {
		s.mu.Unlock()
		return
	}
	s.touched[p.ID()] = now
	s.mu.Unlock()
	// SET rather than EXPIRE so a marker that already lapsed comes back
	_ = s.client.Set(context.Background(), s.key(p.ID()), p.VideoID(), s.ttl).Err()
}

func (s *PlaybackStore) Remove(playbackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playbacks[playbackID]; !ok {
		return
	}
	delete(s.playbacks, playbackID)
	delete(s.touched, playbackID)
	_ = s.client.Del(context.Background(), s.key(playbackID)).Err()
}

func (s *PlaybackStore) key(playbackID string) string {
	return "overlay:playback:" + playbackID
}
