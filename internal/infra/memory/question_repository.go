package memory

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"overlay-quiz-service/internal/domain"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// QuestionSetLoader fetches question sets from a backing store (e.g., authoring DB).
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, videoID string) (domain.QuestionSet, error)
}

// QuestionSetRepository caches question sets with TTL to avoid repeated DB hits.
type QuestionSetRepository struct {
	loader QuestionSetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionSetRepository(loader QuestionSetLoader, ttl time.Duration) *QuestionSetRepository {
	return &QuestionSetRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionSetRepository) GetQuestionSet(ctx context.Context, videoID string) (domain.QuestionSet, error) {
	if set, ok := r.cached(videoID); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(videoID, func() (interface{}, error) {
		if set, ok := r.cached(videoID); ok {
			return set, nil
		}

		set, err := r.loader.LoadQuestionSet(ctx, videoID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		r.mu.Lock()
		r.cache[videoID] = cachedSet{
			set:       set,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

// Invalidate drops a cached set so the next read reloads it. Editing a set
// always rebuilds its timeline from scratch.
func (r *QuestionSetRepository) Invalidate(videoID string) {
	r.mu.Lock()
	delete(r.cache, videoID)
	r.mu.Unlock()
}

func (r *QuestionSetRepository) cached(videoID string) (domain.QuestionSet, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[videoID]; ok && entry.expiresAt.After(now) {
		return entry.set, true
	}
	return domain.QuestionSet{}, false
}

func (r *QuestionSetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionSetLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticQuestionSetLoader struct {
	sets map[string]domain.QuestionSet
}

func NewStaticQuestionSetLoader(sets map[string]domain.QuestionSet) *StaticQuestionSetLoader {
	return &StaticQuestionSetLoader{sets: sets}
}

func (l *StaticQuestionSetLoader) LoadQuestionSet(_ context.Context, videoID string) (domain.QuestionSet, error) {
	if set, ok := l.sets[videoID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

type questionSetFile struct {
	QuestionSets []domain.QuestionSet `yaml:"questionSets"`
}

// ReadQuestionSetsFile parses a YAML file holding a questionSets list.
func ReadQuestionSetsFile(path string) ([]domain.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file questionSetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.QuestionSets, nil
}

// NewFileQuestionSetLoader loads every set in a YAML file into a static loader keyed by video id.
func NewFileQuestionSetLoader(path string) (*StaticQuestionSetLoader, error) {
	sets, err := ReadQuestionSetsFile(path)
	if err != nil {
		return nil, err
	}
	byVideo := make(map[string]domain.QuestionSet, len(sets))
	for _, set := range sets {
		if _, dup := byVideo[set.VideoID]; dup {
			return nil, fmt.Errorf("%s: duplicate question set for video %q", path, set.VideoID)
		}
		byVideo[set.VideoID] = set
	}
	return NewStaticQuestionSetLoader(byVideo), nil
}
