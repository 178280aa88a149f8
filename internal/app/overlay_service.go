package app

import (
	"context"
	"errors"
	"log"
	"time"

	"overlay-quiz-service/internal/domain"
	"overlay-quiz-service/internal/playback"
	"overlay-quiz-service/internal/schedule"

	"github.com/google/uuid"
)

// QuestionSetRepository loads authored question sets (from cache/backing store).
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, videoID string) (domain.QuestionSet, error)
}

// PlaybackRepository abstracts where live playbacks are kept (in-memory, Redis, etc).
type PlaybackRepository interface {
	Add(p *Playback)
	Get(playbackID string) (*Playback, bool)
	Remove(playbackID string)
}

// RewardLedger persists resolved question rewards.
type RewardLedger interface {
	Record(ctx context.Context, record domain.RewardRecord) error
}

// OverlayService contains the overlay use cases: timeline builds and live playback.
type OverlayService struct {
	sets      QuestionSetRepository
	playbacks PlaybackRepository
	ledger    RewardLedger
	opts      playback.Options
	now       func() time.Time
}

func NewOverlayService(sets QuestionSetRepository, playbacks PlaybackRepository, ledger RewardLedger, opts playback.Options) *OverlayService {
	return &OverlayService{
		sets:      sets,
		playbacks: playbacks,
		ledger:    ledger,
		opts:      opts,
		now:       time.Now,
	}
}

// Timeline loads the question set for a video and builds its timeline.
func (s *OverlayService) Timeline(ctx context.Context, videoID string) (domain.Timeline, error) {
	set, err := s.sets.GetQuestionSet(ctx, videoID)
	if err != nil {
		return domain.Timeline{}, err
	}
	return schedule.BuildSet(set)
}

// StartPlayback builds the video's timeline and binds a synchronizer to it.
// Overlay signals go to presenter; resolved rewards also go to the ledger.
func (s *OverlayService) StartPlayback(ctx context.Context, videoID, viewerID string, presenter playback.Presenter) (*Playback, error) {
	set, err := s.sets.GetQuestionSet(ctx, videoID)
	if err != nil {
		return nil, err
	}
	timeline, err := schedule.BuildSet(set)
	if err != nil {
		return nil, err
	}

	p := &Playback{
		id:        uuid.NewString(),
		videoID:   videoID,
		viewerID:  viewerID,
		timeline:  timeline,
		startedAt: s.now(),
	}
	lp := &ledgerPresenter{next: presenter, playback: p, now: s.now}
	synchronizer, err := playback.NewSynchronizer(timeline, set.Questions, lp, s.opts)
	if err != nil {
		return nil, err
	}
	if s.ledger != nil {
		p.writer = newLedgerWriter(p.id, s.ledger)
		lp.writer = p.writer
	}
	p.sync = synchronizer
	s.playbacks.Add(p)
	return p, nil
}

// OnSample forwards a player sample to the playback's synchronizer.
func (s *OverlayService) OnSample(_ context.Context, playbackID string, sample domain.PlaybackSample) error {
	p, ok := s.playbacks.Get(playbackID)
	if !ok || p.sync == nil {
		return domain.ErrPlaybackNotFound
	}
	return p.sync.OnSample(sample)
}

// SubmitAnswer records a viewer's answer. Answers for questions that are not
// presented are logged and dropped: they come from UI races such as double clicks.
func (s *OverlayService) SubmitAnswer(_ context.Context, playbackID, questionID, value string) error {
	p, ok := s.playbacks.Get(playbackID)
	if !ok || p.sync == nil {
		return domain.ErrPlaybackNotFound
	}
	err := p.sync.SubmitAnswer(questionID, value)
	if errors.Is(err, domain.ErrSessionState) {
		log.Printf("playback %s: dropping answer: %v", playbackID, err)
		return nil
	}
	return err
}

// EndPlayback tears the playback down and returns what the viewer earned.
// It returns once every resolved reward has been handed to the ledger.
func (s *OverlayService) EndPlayback(_ context.Context, playbackID string) (domain.PlaybackSummary, error) {
	p, ok := s.playbacks.Get(playbackID)
	if !ok {
		return domain.PlaybackSummary{}, domain.ErrPlaybackNotFound
	}
	if p.sync != nil {
		p.sync.Close()
	}
	// no presenter call can follow Close, so the queue can be drained
	if p.writer != nil {
		p.writer.close()
	}
	s.playbacks.Remove(playbackID)
	return p.Summary(), nil
}

// NewPlayback is exported for infrastructure layers that need to seed playbacks.
// A seeded playback has no synchronizer until started by the service.
func NewPlayback(id, videoID, viewerID string) *Playback {
	return &Playback{id: id, videoID: videoID, viewerID: viewerID, startedAt: time.Now()}
}

// Playback is one viewer watching one video.
type Playback struct {
	id        string
	videoID   string
	viewerID  string
	timeline  domain.Timeline
	startedAt time.Time
	sync      *playback.Synchronizer
	writer    *ledgerWriter
}

func (p *Playback) ID() string                { return p.id }
func (p *Playback) VideoID() string           { return p.videoID }
func (p *Playback) ViewerID() string          { return p.viewerID }
func (p *Playback) Timeline() domain.Timeline { return p.timeline }
func (p *Playback) StartedAt() time.Time      { return p.startedAt }

// State reports where questionID is in its lifecycle for this playback.
func (p *Playback) State(questionID string) domain.SessionState {
	if p.sync == nil {
		return domain.StateIdle
	}
	return p.sync.State(questionID)
}

// Summary totals the finished sessions so far.
func (p *Playback) Summary() domain.PlaybackSummary {
	var results []domain.SessionResult
	if p.sync != nil {
		results = p.sync.Results()
	}
	summary := domain.PlaybackSummary{
		PlaybackID: p.id,
		VideoID:    p.videoID,
		ViewerID:   p.viewerID,
		Results:    results,
	}
	for _, r := range results {
		summary.Total = summary.Total.Add(r.Award)
	}
	return summary
}

// ledgerPresenter queues resolved rewards for the ledger before forwarding
// each signal. Skipped questions never reach the ledger.
type ledgerPresenter struct {
	next     playback.Presenter
	writer   *ledgerWriter
	playback *Playback
	now      func() time.Time
}

func (l *ledgerPresenter) QuestionArmed(questionID string) {
	l.next.QuestionArmed(questionID)
}

func (l *ledgerPresenter) QuestionPresented(questionID string, timeLimitSeconds float64) {
	l.next.QuestionPresented(questionID, timeLimitSeconds)
}

func (l *ledgerPresenter) QuestionResolved(questionID string, outcome domain.Outcome, award domain.Award) {
	if l.writer != nil {
		l.writer.enqueue(domain.RewardRecord{
			PlaybackID: l.playback.id,
			VideoID:    l.playback.videoID,
			ViewerID:   l.playback.viewerID,
			QuestionID: questionID,
			Outcome:    outcome,
			Award:      award,
			RecordedAt: l.now(),
		})
	}
	l.next.QuestionResolved(questionID, outcome, award)
}

func (l *ledgerPresenter) QuestionSkipped(questionID string) {
	l.next.QuestionSkipped(questionID)
}
