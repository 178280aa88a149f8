package postgres

import (
	"context"
	"fmt"
	"time"

	"overlay-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

type rewardEvent struct {
	bun.BaseModel `bun:"table:reward_events"`

	ID         int64     `bun:"id,pk,autoincrement"`
	PlaybackID string    `bun:"playback_id,notnull"`
	VideoID    string    `bun:"video_id,notnull"`
	ViewerID   string    `bun:"viewer_id,notnull"`
	QuestionID string    `bun:"question_id,notnull"`
	Outcome    string    `bun:"outcome,notnull"`
	Meritos    int       `bun:"meritos,notnull"`
	Ondas      int       `bun:"ondas,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}

// Ledger appends resolved rewards to the reward_events table.
type Ledger struct {
	db *bun.DB
}

func NewLedger(db *bun.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Record(ctx context.Context, record domain.RewardRecord) error {
	row := &rewardEvent{
		PlaybackID: record.PlaybackID,
		VideoID:    record.VideoID,
		ViewerID:   record.ViewerID,
		QuestionID: record.QuestionID,
		Outcome:    string(record.Outcome),
		Meritos:    record.Award.Meritos,
		Ondas:      record.Award.Ondas,
		RecordedAt: record.RecordedAt,
	}
	// one row per (playback, question); a replayed signal must not double-pay
	if _, err := l.db.NewInsert().
		Model(row).
		On("CONFLICT (playback_id, question_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx); err != nil {
		return fmt.Errorf("insert reward event: %w", err)
	}
	return nil
}

// Totals sums the awards recorded for a viewer.
func (l *Ledger) Totals(ctx context.Context, viewerID string) (domain.Award, error) {
	var total domain.Award
	err := l.db.NewSelect().
		Model((*rewardEvent)(nil)).
		ColumnExpr("COALESCE(SUM(meritos), 0)").
		ColumnExpr("COALESCE(SUM(ondas), 0)").
		Where("viewer_id = ?", viewerID).
		Scan(ctx, &total.Meritos, &total.Ondas)
	if err != nil {
		return domain.Award{}, fmt.Errorf("sum rewards: %w", err)
	}
	return total, nil
}
