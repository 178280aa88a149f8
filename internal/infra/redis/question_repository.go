package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"overlay-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionSetLoader fetches question sets from a backing store (e.g., authoring DB).
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, videoID string) (domain.QuestionSet, error)
}

// QuestionSetRepository caches question sets in Redis and falls back to a loader on cache miss.
// Sets are stored as:      SET  overlay:video:{videoID}:set  {json}
// Question ids as:         RPUSH overlay:video:{videoID}:ids {questionID...}
type QuestionSetRepository struct {
	client *redis.Client
	loader QuestionSetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionSetRepository(client *redis.Client, loader QuestionSetLoader, ttl time.Duration) *QuestionSetRepository {
	return &QuestionSetRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionSetRepository) GetQuestionSet(ctx context.Context, videoID string) (domain.QuestionSet, error) {
	if set, ok := r.fromCache(ctx, videoID); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(videoID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := r.fromCache(ctx, videoID); ok {
			return set, nil
		}

		set, err := r.loader.LoadQuestionSet(ctx, videoID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		raw, err := json.Marshal(set)
		if err != nil {
			return set, nil
		}
		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		pipe.Set(ctx, r.setKey(videoID), raw, ttl)
		pipe.Del(ctx, r.idsKey(videoID))
		for _, q := range set.Questions {
			pipe.RPush(ctx, r.idsKey(videoID), q.ID)
		}
		if ttl > 0 {
			pipe.Expire(ctx, r.idsKey(videoID), ttl)
		}
		_, _ = pipe.Exec(ctx)

		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

// Invalidate drops the cached set so edits are picked up by the next build.
func (r *QuestionSetRepository) Invalidate(ctx context.Context, videoID string) error {
	return r.client.Del(ctx, r.setKey(videoID), r.idsKey(videoID)).Err()
}

// QuestionIDs returns the cached authoring order for a video.
func (r *QuestionSetRepository) QuestionIDs(ctx context.Context, videoID string) ([]string, error) {
	return r.client.LRange(ctx, r.idsKey(videoID), 0, -1).Result()
}

func (r *QuestionSetRepository) fromCache(ctx context.Context, videoID string) (domain.QuestionSet, bool) {
	raw, err := r.client.Get(ctx, r.setKey(videoID)).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.QuestionSet{}, false
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.QuestionSet{}, false
	}
	return set, true
}

func (r *QuestionSetRepository) setKey(videoID string) string {
	return "overlay:video:" + videoID + ":set"
}

func (r *QuestionSetRepository) idsKey(videoID string) string {
	return "overlay:video:" + videoID + ":ids"
}

func (r *QuestionSetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
