package playback

import (
	"time"

	"overlay-quiz-service/internal/domain"
	"overlay-quiz-service/internal/reward"
)

// AnswerSession tracks one question from arming to its terminal state.
// It is owned by a Synchronizer and never reused once finished.
type AnswerSession struct {
	spec   domain.QuestionSpec
	window domain.ScheduledQuestion

	state       domain.SessionState
	history     []domain.SessionState
	armedAt     time.Time
	presentedAt time.Time
	remaining   float64
	outcome     domain.Outcome
	award       domain.Award

	timer Timer
}

func newAnswerSession(spec domain.QuestionSpec, window domain.ScheduledQuestion, now time.Time) *AnswerSession {
	s := &AnswerSession{spec: spec, window: window, armedAt: now}
	s.transition(domain.StateArmed)
	return s
}

func (s *AnswerSession) QuestionID() string               { return s.spec.ID }
func (s *AnswerSession) State() domain.SessionState       { return s.state }
func (s *AnswerSession) Window() domain.ScheduledQuestion { return s.window }
func (s *AnswerSession) ArmedAt() time.Time               { return s.armedAt }
func (s *AnswerSession) PresentedAt() time.Time           { return s.presentedAt }
func (s *AnswerSession) Outcome() domain.Outcome          { return s.outcome }
func (s *AnswerSession) Award() domain.Award              { return s.award }
func (s *AnswerSession) RemainingAtAnswer() float64       { return s.remaining }

// History lists every state the session has passed through, in order.
func (s *AnswerSession) History() []domain.SessionState {
	out := make([]domain.SessionState, len(s.history))
	copy(out, s.history)
	return out
}

// Result is the summary reported once the session is terminal.
func (s *AnswerSession) Result() domain.SessionResult {
	return domain.SessionResult{
		QuestionID:        s.spec.ID,
		Outcome:           s.outcome,
		RemainingAtAnswer: s.remaining,
		Award:             s.award,
	}
}

func (s *AnswerSession) present(now time.Time) error {
	if s.state != domain.StateArmed {
		return s.stateErr()
	}
	s.presentedAt = now
	s.transition(domain.StatePresented)
	return nil
}

func (s *AnswerSession) answer(value string, now time.Time) error {
	if s.state != domain.StatePresented {
		return s.stateErr()
	}
	s.remaining = s.remainingAt(now)
	s.outcome = domain.OutcomeIncorrect
	if value == s.spec.AnswerKey {
		s.outcome = domain.OutcomeCorrect
	}
	s.transition(domain.StateAnswered)
	s.resolve()
	return nil
}

func (s *AnswerSession) timeout() error {
	if s.state != domain.StatePresented {
		return s.stateErr()
	}
	s.remaining = 0
	s.outcome = domain.OutcomeTimedOut
	s.transition(domain.StateTimedOut)
	s.resolve()
	return nil
}

func (s *AnswerSession) skip() error {
	if !s.state.Live() {
		return s.stateErr()
	}
	s.outcome = domain.OutcomeSkipped
	s.award = domain.Award{}
	s.transition(domain.StateSkipped)
	return nil
}

func (s *AnswerSession) resolve() {
	s.award = reward.Compute(s.outcome, s.remaining, s.spec.TimeLimitSeconds, s.spec.Reward)
	s.transition(domain.StateResolved)
}

func (s *AnswerSession) remainingAt(now time.Time) float64 {
	left := s.spec.TimeLimitSeconds - now.Sub(s.presentedAt).Seconds()
	if left < 0 {
		return 0
	}
	return left
}

func (s *AnswerSession) setTimer(t Timer) {
	s.cancelTimer()
	s.timer = t
}

// cancelTimer stops the pending timer, at most once per timer.
func (s *AnswerSession) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *AnswerSession) transition(to domain.SessionState) {
	s.state = to
	s.history = append(s.history, to)
}

func (s *AnswerSession) stateErr() error {
	return &domain.SessionStateError{QuestionID: s.spec.ID, State: s.state}
}
