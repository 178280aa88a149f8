package redis

import (
	"context"
	"testing"
	"time"

	"overlay-quiz-service/internal/app"
	"overlay-quiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPlaybackStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewPlaybackStore(client, time.Minute)

	store.Add(app.NewPlayback("pb-1", "video-1", "viewer-1"))
	if !mr.Exists("overlay:playback:pb-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("overlay:playback:pb-1"); got != "video-1" {
		t.Fatalf("expected video id marker, got %q", got)
	}
	if _, ok := store.Get("pb-1"); !ok {
		t.Fatalf("expected playback present locally")
	}

	store.Remove("pb-1")
	if mr.Exists("overlay:playback:pb-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestPlaybackStoreRefreshesLivenessOnActivity(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store := NewPlaybackStore(newClient(mr), time.Minute)
	store.clock = func() time.Time { return now }
	store.Add(app.NewPlayback("pb-1", "video-1", "viewer-1"))

	// a Get soon after the last refresh does not touch Redis
	now = now.Add(5 * time.Second)
	mr.FastForward(5 * time.Second)
	store.Get("pb-1")
	if ttl := mr.TTL("overlay:playback:pb-1"); ttl != 55*time.Second {
		t.Fatalf("expected untouched ttl of 55s, got %v", ttl)
	}

	now = now.Add(45 * time.Second)
	mr.FastForward(45 * time.Second)
	store.Get("pb-1")
	if ttl := mr.TTL("overlay:playback:pb-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed to 1m, got %v", ttl)
	}

	// the playback outlives the original ttl while it stays active
	now = now.Add(40 * time.Second)
	mr.FastForward(40 * time.Second)
	if !mr.Exists("overlay:playback:pb-1") {
		t.Fatalf("liveness key expired under an active playback")
	}

	// idle playbacks still lapse
	mr.FastForward(time.Minute)
	if mr.Exists("overlay:playback:pb-1") {
		t.Fatalf("expected idle liveness key to expire")
	}
}

func TestLedgerAccumulatesTotals(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	ledger := NewLedger(newClient(mr))
	records := []domain.RewardRecord{
		{PlaybackID: "pb-1", ViewerID: "v1", QuestionID: "q1", Outcome: domain.OutcomeCorrect, Award: domain.Award{Meritos: 15, Ondas: 8}},
		{PlaybackID: "pb-1", ViewerID: "v1", QuestionID: "q2", Outcome: domain.OutcomeTimedOut},
		{PlaybackID: "pb-2", ViewerID: "v1", QuestionID: "q1", Outcome: domain.OutcomeCorrect, Award: domain.Award{Meritos: 15, Ondas: 3}},
	}
	for _, r := range records {
		if err := ledger.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	total, err := ledger.Totals(ctx, "v1")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if total != (domain.Award{Meritos: 30, Ondas: 11}) {
		t.Fatalf("unexpected totals %+v", total)
	}

	outcomes, err := ledger.Outcomes(ctx, "pb-1")
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if outcomes["q1"] != domain.OutcomeCorrect || outcomes["q2"] != domain.OutcomeTimedOut {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}

	empty, err := ledger.Totals(ctx, "nobody")
	if err != nil || empty != (domain.Award{}) {
		t.Fatalf("expected zero totals, got %+v %v", empty, err)
	}
}
