package memory

import (
	"context"
	"testing"
	"time"

	"overlay-quiz-service/internal/app"
	"overlay-quiz-service/internal/domain"
)

func TestPlaybackStoreLifecycle(t *testing.T) {
	store := NewPlaybackStore()

	store.Add(app.NewPlayback("pb-1", "video-1", "viewer-1"))
	p, ok := store.Get("pb-1")
	if !ok || p.VideoID() != "video-1" {
		t.Fatalf("expected playback present, got %+v %v", p, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 playback, got %d", store.Len())
	}

	store.Remove("pb-1")
	if _, ok := store.Get("pb-1"); ok {
		t.Fatalf("expected playback removed")
	}
}

func TestLedgerTotalsPerViewer(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()
	records := []domain.RewardRecord{
		{ViewerID: "v1", QuestionID: "q1", Outcome: domain.OutcomeCorrect, Award: domain.Award{Meritos: 15, Ondas: 8}, RecordedAt: time.Now()},
		{ViewerID: "v1", QuestionID: "q2", Outcome: domain.OutcomeTimedOut},
		{ViewerID: "v2", QuestionID: "q1", Outcome: domain.OutcomeCorrect, Award: domain.Award{Meritos: 15, Ondas: 2}},
		{ViewerID: "v1", QuestionID: "q3", Outcome: domain.OutcomeCorrect, Award: domain.Award{Meritos: 5, Ondas: 1}},
	}
	for _, r := range records {
		if err := ledger.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if got := ledger.Totals("v1"); got != (domain.Award{Meritos: 20, Ondas: 9}) {
		t.Fatalf("unexpected v1 totals %+v", got)
	}
	if got := len(ledger.Records()); got != 4 {
		t.Fatalf("expected 4 records, got %d", got)
	}
}
