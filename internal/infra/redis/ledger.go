package redis

import (
	"context"
	"fmt"
	"strconv"

	"overlay-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Ledger keeps running reward totals per viewer and the outcome of every
// question per playback.
// Totals:    HINCRBY overlay:ledger:{viewerID} meritos|ondas {n}
// Outcomes:  HSET    overlay:outcomes:{playbackID} {questionID} {outcome}
type Ledger struct {
	client *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

func (l *Ledger) Record(ctx context.Context, record domain.RewardRecord) error {
	pipe := l.client.TxPipeline()
	pipe.HIncrBy(ctx, l.totalsKey(record.ViewerID), "meritos", int64(record.Award.Meritos))
	pipe.HIncrBy(ctx, l.totalsKey(record.ViewerID), "ondas", int64(record.Award.Ondas))
	pipe.HSet(ctx, l.outcomesKey(record.PlaybackID), record.QuestionID, string(record.Outcome))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record reward: %w", err)
	}
	return nil
}

// Totals returns the accumulated award for a viewer.
func (l *Ledger) Totals(ctx context.Context, viewerID string) (domain.Award, error) {
	values, err := l.client.HGetAll(ctx, l.totalsKey(viewerID)).Result()
	if err != nil {
		return domain.Award{}, err
	}
	var total domain.Award
	if v, ok := values["meritos"]; ok {
		if total.Meritos, err = strconv.Atoi(v); err != nil {
			return domain.Award{}, err
		}
	}
	if v, ok := values["ondas"]; ok {
		if total.Ondas, err = strconv.Atoi(v); err != nil {
			return domain.Award{}, err
		}
	}
	return total, nil
}

// Outcomes returns questionID -> outcome for a playback.
func (l *Ledger) Outcomes(ctx context.Context, playbackID string) (map[string]domain.Outcome, error) {
	values, err := l.client.HGetAll(ctx, l.outcomesKey(playbackID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Outcome, len(values))
	for questionID, outcome := range values {
		out[questionID] = domain.Outcome(outcome)
	}
	return out, nil
}

func (l *Ledger) totalsKey(viewerID string) string {
	return "overlay:ledger:" + viewerID
}

func (l *Ledger) outcomesKey(playbackID string) string {
	return "overlay:outcomes:" + playbackID
}
