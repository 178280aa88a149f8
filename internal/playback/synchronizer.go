// Package playback drives answer sessions from player position samples.
package playback

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"overlay-quiz-service/internal/domain"
	"overlay-quiz-service/internal/schedule"
)

// Presenter receives overlay signals. Methods are called with the
// synchronizer's lock held and must not call back into the synchronizer.
type Presenter interface {
	// QuestionArmed asks the player to pause and prepare the overlay.
	QuestionArmed(questionID string)
	// QuestionPresented asks for the overlay and its visible countdown.
	QuestionPresented(questionID string, timeLimitSeconds float64)
	// QuestionResolved asks to hide the overlay and resume playback.
	QuestionResolved(questionID string, outcome domain.Outcome, award domain.Award)
	// QuestionSkipped asks to drop any stale overlay state.
	QuestionSkipped(questionID string)
}

// Options tunes a Synchronizer. Zero values are usable.
type Options struct {
	// ArmDelay is how long a question stays Armed before it is presented.
	ArmDelay time.Duration
	Clock    Clock
}

// Synchronizer applies playback samples against a timeline index and owns
// the single live AnswerSession.
type Synchronizer struct {
	index     *schedule.Index
	specs     map[string]domain.QuestionSpec
	presenter Presenter
	clock     Clock
	armDelay  time.Duration

	mu       sync.Mutex
	started  bool
	lastSeq  uint64
	position float64
	// scanFrom is where forward ticks resume looking for crossed windows.
	// It stays put while a session is live so later windows are not lost.
	scanFrom float64
	live     *AnswerSession
	consumed map[string]domain.SessionState
	results  []domain.SessionResult
	closed   bool
}

// NewSynchronizer binds a built timeline to the specs it was built from.
func NewSynchronizer(timeline domain.Timeline, specs []domain.QuestionSpec, presenter Presenter, opts Options) (*Synchronizer, error) {
	if presenter == nil {
		return nil, errors.New("playback: nil presenter")
	}
	byID := make(map[string]domain.QuestionSpec, len(specs))
	for _, spec := range specs {
		byID[spec.ID] = spec
	}
	for _, w := range timeline.Questions {
		if _, ok := byID[w.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: no spec for scheduled question %q", domain.ErrInvalidQuestionSpec, w.QuestionID)
		}
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Synchronizer{
		index:     schedule.NewIndex(timeline),
		specs:     byID,
		presenter: presenter,
		clock:     clock,
		armDelay:  opts.ArmDelay,
		consumed:  make(map[string]domain.SessionState),
	}, nil
}

// OnSample applies one tick or seek. Samples older than the last applied
// sequence are dropped, as is a tick sharing a sequence with an applied sample.
func (s *Synchronizer) OnSample(sample domain.PlaybackSample) error {
	if sample.Kind != domain.SampleTick && sample.Kind != domain.SampleSeek {
		return fmt.Errorf("playback: unknown sample kind %q", sample.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrPlaybackClosed
	}
	if s.started && (sample.Sequence < s.lastSeq || (sample.Sequence == s.lastSeq && sample.Kind == domain.SampleTick)) {
		log.Printf("playback: dropping stale %s seq=%d (last applied %d)", sample.Kind, sample.Sequence, s.lastSeq)
		return nil
	}

	prev := s.position
	if !s.started {
		prev = sample.CurrentTime
		s.scanFrom = sample.CurrentTime
	}
	s.started = true
	s.lastSeq = sample.Sequence
	s.position = sample.CurrentTime

	if sample.Kind == domain.SampleSeek {
		s.scanFrom = sample.CurrentTime
		s.seekLocked(sample.CurrentTime)
		return nil
	}
	s.tickLocked(prev, sample.CurrentTime)
	return nil
}

// SubmitAnswer scores value against the presented question. It returns a
// *domain.SessionStateError when questionID is not currently presented.
func (s *Synchronizer) SubmitAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrPlaybackClosed
	}
	if s.live == nil || s.live.QuestionID() != questionID {
		return &domain.SessionStateError{QuestionID: questionID, State: s.stateOfLocked(questionID)}
	}
	session := s.live
	if err := session.answer(value, s.clock.Now()); err != nil {
		return err
	}
	s.resolveLocked(session)
	return nil
}

// Close tears the synchronizer down. Pending timers are cancelled and no
// further presenter calls are made.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.live != nil {
		s.live.cancelTimer()
		s.live = nil
	}
}

// Position returns the last applied playback time.
func (s *Synchronizer) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Live returns the question currently armed or presented.
func (s *Synchronizer) Live() (string, domain.SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return "", domain.StateIdle, false
	}
	return s.live.QuestionID(), s.live.State(), true
}

// State reports the lifecycle state of questionID in this playback.
func (s *Synchronizer) State(questionID string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateOfLocked(questionID)
}

// Results lists finished sessions in the order they ended.
func (s *Synchronizer) Results() []domain.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SessionResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Synchronizer) stateOfLocked(questionID string) domain.SessionState {
	if s.live != nil && s.live.QuestionID() == questionID {
		return s.live.State()
	}
	if state, ok := s.consumed[questionID]; ok {
		return state
	}
	return domain.StateIdle
}

func (s *Synchronizer) seekLocked(t float64) {
	if s.live == nil || s.live.Window().Contains(t) {
		return
	}
	session := s.live
	if err := session.skip(); err != nil {
		log.Printf("playback: skip %s: %v", session.QuestionID(), err)
		return
	}
	session.cancelTimer()
	s.finishLocked(session)
	s.presenter.QuestionSkipped(session.QuestionID())
}

func (s *Synchronizer) tickLocked(prev, t float64) {
	// Playback is paused while a question is live; only seeks can end it early.
	if s.live != nil || t < prev {
		return
	}
	// Windows starting in (scanFrom, t] were crossed by forward play; arm the
	// earliest unconsumed one and resume the scan from its start next time.
	for w, ok := s.index.NextAfter(s.scanFrom); ok && w.Start <= t; w, ok = s.index.NextAfter(w.Start) {
		if !s.isConsumedLocked(w.QuestionID) {
			s.scanFrom = w.Start
			s.armLocked(w)
			return
		}
	}
	s.scanFrom = t
	if w, ok := s.index.ActiveAt(t); ok && !s.isConsumedLocked(w.QuestionID) {
		s.armLocked(w)
	}
}

func (s *Synchronizer) isConsumedLocked(questionID string) bool {
	_, ok := s.consumed[questionID]
	return ok
}

func (s *Synchronizer) armLocked(w domain.ScheduledQuestion) {
	session := newAnswerSession(s.specs[w.QuestionID], w, s.clock.Now())
	s.live = session
	s.presenter.QuestionArmed(session.QuestionID())

	if s.armDelay <= 0 {
		s.presentLocked(session)
		return
	}
	session.setTimer(s.clock.AfterFunc(s.armDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.live != session || session.State() != domain.StateArmed {
			return
		}
		s.presentLocked(session)
	}))
}

func (s *Synchronizer) presentLocked(session *AnswerSession) {
	if err := session.present(s.clock.Now()); err != nil {
		log.Printf("playback: present %s: %v", session.QuestionID(), err)
		return
	}
	limit := s.specs[session.QuestionID()].TimeLimitSeconds
	s.presenter.QuestionPresented(session.QuestionID(), limit)
	session.setTimer(s.clock.AfterFunc(seconds(limit), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.live != session || session.State() != domain.StatePresented {
			return
		}
		if err := session.timeout(); err != nil {
			log.Printf("playback: timeout %s: %v", session.QuestionID(), err)
			return
		}
		s.resolveLocked(session)
	}))
}

func (s *Synchronizer) resolveLocked(session *AnswerSession) {
	session.cancelTimer()
	s.finishLocked(session)
	s.presenter.QuestionResolved(session.QuestionID(), session.Outcome(), session.Award())
}

func (s *Synchronizer) finishLocked(session *AnswerSession) {
	s.consumed[session.QuestionID()] = session.State()
	s.results = append(s.results, session.Result())
	if s.live == session {
		s.live = nil
	}
}
