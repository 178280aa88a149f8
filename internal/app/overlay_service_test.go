package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"overlay-quiz-service/internal/app"
	"overlay-quiz-service/internal/domain"
	"overlay-quiz-service/internal/infra/memory"
	"overlay-quiz-service/internal/playback"
)

func TestTimelineBuildsFromQuestionSet(t *testing.T) {
	service, _, _ := newTestService()

	tl, err := service.Timeline(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(tl.Questions) != 2 || tl.Questions[0].Start != 0 || tl.Questions[1].Start != 20 {
		t.Fatalf("unexpected windows %+v", tl.Questions)
	}

	if _, err := service.Timeline(context.Background(), "video-broken"); !errors.Is(err, domain.ErrOverlap) {
		t.Fatalf("expected overlap error, got %v", err)
	}
	if _, err := service.Timeline(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaybackAnswerFlowRecordsLedger(t *testing.T) {
	ctx := context.Background()
	service, store, ledger := newTestService()
	rec := &recorder{}

	pb, err := service.StartPlayback(ctx, "video-1", "viewer-1", rec)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected playback stored")
	}

	if err := service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 0.25, Sequence: 1, Kind: domain.SampleTick}); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if err := service.SubmitAnswer(ctx, pb.ID(), "q1", "b"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Double submit is dropped, not surfaced.
	if err := service.SubmitAnswer(ctx, pb.ID(), "q1", "b"); err != nil {
		t.Fatalf("double submit should be dropped, got %v", err)
	}

	// Seek past q2 after it is presented: skipped, nothing recorded.
	_ = service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 20.5, Sequence: 2, Kind: domain.SampleTick})
	_ = service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 95, Sequence: 3, Kind: domain.SampleSeek})
	if pb.State("q2") != domain.StateSkipped {
		t.Fatalf("expected q2 skipped, got %s", pb.State("q2"))
	}

	summary, err := service.EndPlayback(ctx, pb.ID())
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(summary.Results) != 2 || summary.Total.Meritos != 15 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if store.Len() != 0 {
		t.Fatalf("expected playback removed")
	}

	// EndPlayback drains the ledger queue; the skipped question is not recorded.
	records := ledger.Records()
	if len(records) != 1 {
		t.Fatalf("expected one ledger record, got %+v", records)
	}
	r := records[0]
	if r.PlaybackID != pb.ID() || r.ViewerID != "viewer-1" || r.VideoID != "video-1" || r.Outcome != domain.OutcomeCorrect {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.Award.Meritos != 15 {
		t.Fatalf("expected 15 meritos, got %+v", r.Award)
	}
	if err := service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 96, Sequence: 4, Kind: domain.SampleTick}); !errors.Is(err, domain.ErrPlaybackNotFound) {
		t.Fatalf("expected not found after end, got %v", err)
	}

	want := []string{"armed:q1", "presented:q1", "resolved:q1", "armed:q2", "presented:q2", "skipped:q2"}
	if got := rec.snapshot(); len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	}
}

func TestPlaybackTimeoutResolvesWithRealClock(t *testing.T) {
	ctx := context.Background()
	service, _, ledger := newTestService()
	rec := &recorder{}

	pb, err := service.StartPlayback(ctx, "video-quick", "viewer-1", rec)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 1, Sequence: 1, Kind: domain.SampleTick}); err != nil {
		t.Fatalf("sample: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pb.State("q1") != domain.StateResolved {
		if time.Now().After(deadline) {
			t.Fatalf("countdown never fired, state %s", pb.State("q1"))
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := service.EndPlayback(ctx, pb.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}
	records := ledger.Records()
	if len(records) != 1 || records[0].Outcome != domain.OutcomeTimedOut || records[0].Award != (domain.Award{}) {
		t.Fatalf("expected zero-award timeout, got %+v", records)
	}
}

func TestSlowLedgerDoesNotStallPlayback(t *testing.T) {
	ctx := context.Background()
	ledger := &gatedLedger{release: make(chan struct{})}
	service := app.NewOverlayService(testQuestionSets(), memory.NewPlaybackStore(), ledger, playback.Options{})
	rec := &recorder{}

	pb, err := service.StartPlayback(ctx, "video-1", "viewer-1", rec)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 0.25, Sequence: 1, Kind: domain.SampleTick})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = service.SubmitAnswer(ctx, pb.ID(), "q1", "b")
		_ = service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 20.5, Sequence: 2, Kind: domain.SampleTick})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("answer and sample blocked on the ledger")
	}
	if pb.State("q2") != domain.StatePresented {
		t.Fatalf("expected q2 presented while the ledger is stalled, got %s", pb.State("q2"))
	}

	close(ledger.release)
	if _, err := service.EndPlayback(ctx, pb.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := ledger.count(); got != 1 {
		t.Fatalf("expected the queued record written by EndPlayback, got %d", got)
	}
}

// gatedLedger blocks every write until release is closed.
type gatedLedger struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (l *gatedLedger) Record(ctx context.Context, _ domain.RewardRecord) error {
	select {
	case <-l.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	return nil
}

func (l *gatedLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func TestEndPlaybackCancelsCountdown(t *testing.T) {
	ctx := context.Background()
	service, _, ledger := newTestService()
	rec := &recorder{}

	pb, err := service.StartPlayback(ctx, "video-quick", "viewer-1", rec)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = service.OnSample(ctx, pb.ID(), domain.PlaybackSample{CurrentTime: 1, Sequence: 1, Kind: domain.SampleTick})
	if _, err := service.EndPlayback(ctx, pb.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if len(ledger.Records()) != 0 {
		t.Fatalf("countdown fired into a torn-down playback: %+v", ledger.Records())
	}
	for _, ev := range rec.snapshot() {
		if ev == "resolved:q1" {
			t.Fatalf("unexpected resolve after teardown")
		}
	}
}

func TestStartPlaybackRejectsInvalidSet(t *testing.T) {
	service, store, _ := newTestService()
	if _, err := service.StartPlayback(context.Background(), "video-broken", "viewer-1", &recorder{}); !errors.Is(err, domain.ErrOverlap) {
		t.Fatalf("expected overlap error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("no playback should be stored for a failed build")
	}
}

func TestUnknownPlayback(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	if err := service.SubmitAnswer(ctx, "nope", "q1", "b"); !errors.Is(err, domain.ErrPlaybackNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := service.EndPlayback(ctx, "nope"); !errors.Is(err, domain.ErrPlaybackNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) QuestionArmed(id string)                { r.add("armed:" + id) }
func (r *recorder) QuestionPresented(id string, _ float64) { r.add("presented:" + id) }
func (r *recorder) QuestionSkipped(id string)              { r.add("skipped:" + id) }
func (r *recorder) QuestionResolved(id string, _ domain.Outcome, _ domain.Award) {
	r.add("resolved:" + id)
}

func newTestService() (*app.OverlayService, *memory.PlaybackStore, *memory.Ledger) {
	store := memory.NewPlaybackStore()
	ledger := memory.NewLedger()
	return app.NewOverlayService(testQuestionSets(), store, ledger, playback.Options{}), store, ledger
}

func testQuestionSets() *memory.QuestionSetRepository {
	start10, start15 := 10.0, 15.0
	return memory.NewQuestionSetRepository(memory.NewStaticQuestionSetLoader(map[string]domain.QuestionSet{
		"video-1": {
			VideoID:              "video-1",
			VideoDurationSeconds: 100,
			Placement:            domain.Placement{Mode: domain.PlacementClusterStart, SpacingSeconds: 5},
			Questions: []domain.QuestionSpec{
				{ID: "q1", DurationSeconds: 15, TimeLimitSeconds: 30, AnswerKey: "b", Reward: domain.Reward{BaseMeritos: 15, BaseOndas: 8}},
				{ID: "q2", DurationSeconds: 15, TimeLimitSeconds: 30, AnswerKey: "c", Reward: domain.Reward{BaseMeritos: 10, BaseOndas: 4}},
			},
		},
		"video-broken": {
			VideoID:              "video-broken",
			VideoDurationSeconds: 100,
			Placement:            domain.Placement{Mode: domain.PlacementCustom},
			Questions: []domain.QuestionSpec{
				{ID: "q1", DurationSeconds: 10, TimeLimitSeconds: 30, AnswerKey: "a", RequestedStart: &start10},
				{ID: "q2", DurationSeconds: 10, TimeLimitSeconds: 30, AnswerKey: "a", RequestedStart: &start15},
			},
		},
		"video-quick": {
			VideoID:              "video-quick",
			VideoDurationSeconds: 10,
			Placement:            domain.Placement{Mode: domain.PlacementClusterStart},
			Questions: []domain.QuestionSpec{
				{ID: "q1", DurationSeconds: 5, TimeLimitSeconds: 0.05, AnswerKey: "a", Reward: domain.Reward{BaseMeritos: 1, BaseOndas: 1}},
			},
		},
	}), 5*time.Minute)
}
