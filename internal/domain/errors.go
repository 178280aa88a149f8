package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuestionSpec is returned when a question definition is malformed.
	ErrInvalidQuestionSpec = errors.New("invalid question spec")
	// ErrInvalidPlacement indicates unusable placement parameters or video duration.
	ErrInvalidPlacement = errors.New("invalid placement")
	// ErrOverlap is returned when two scheduled windows overlap or are out of order.
	ErrOverlap = errors.New("question windows overlap")
	// ErrOutOfBounds is returned when a window starts before 0 or ends after the video.
	ErrOutOfBounds = errors.New("question window out of bounds")
	// ErrQuestionOverflow is returned when packed questions do not fit the video.
	ErrQuestionOverflow = errors.New("questions overflow video duration")
	// ErrInsufficientDuration is returned when even spread has no room for its gaps.
	ErrInsufficientDuration = errors.New("insufficient video duration")
	// ErrSessionState is returned when an answer arrives for a question that is not presented.
	ErrSessionState = errors.New("question not accepting answers")
	// ErrQuestionSetNotFound indicates no question set exists for a video.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrPlaybackNotFound indicates the playback session id is unknown.
	ErrPlaybackNotFound = errors.New("playback session not found")
	// ErrPlaybackClosed is returned for input arriving after teardown.
	ErrPlaybackClosed = errors.New("playback session closed")
)

// InvalidQuestionSpecError names the offending question and field.
type InvalidQuestionSpecError struct {
	Index      int
	QuestionID string
	Field      string
	Reason     string
}

func (e *InvalidQuestionSpecError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("question %q: %s %s", e.QuestionID, e.Field, e.Reason)
	}
	return fmt.Sprintf("question %d (%q): %s %s", e.Index, e.QuestionID, e.Field, e.Reason)
}

func (e *InvalidQuestionSpecError) Unwrap() error { return ErrInvalidQuestionSpec }

// OverlapError reports the adjacent pair that violates end_i <= start_j.
type OverlapError struct {
	First  int
	Second int
	End    float64
	Start  float64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("question %d ends at %g after question %d starts at %g", e.First, e.End, e.Second, e.Start)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// OutOfBoundsError reports a window outside [0, videoDuration].
type OutOfBoundsError struct {
	Index         int
	Start         float64
	End           float64
	VideoDuration float64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("question %d window [%g,%g) outside video [0,%g]", e.Index, e.Start, e.End, e.VideoDuration)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// QuestionOverflowError reports how much time a packed block needs.
type QuestionOverflowError struct {
	Required      float64
	VideoDuration float64
}

func (e *QuestionOverflowError) Error() string {
	return fmt.Sprintf("questions need %gs but video is %gs", e.Required, e.VideoDuration)
}

func (e *QuestionOverflowError) Unwrap() error { return ErrQuestionOverflow }

// InsufficientDurationError reports total question time exceeding the video.
type InsufficientDurationError struct {
	TotalQuestionSeconds float64
	VideoDuration        float64
}

func (e *InsufficientDurationError) Error() string {
	return fmt.Sprintf("questions total %gs exceed video duration %gs", e.TotalQuestionSeconds, e.VideoDuration)
}

func (e *InsufficientDurationError) Unwrap() error { return ErrInsufficientDuration }

// SessionStateError is raised for answers to a question that is not presented.
type SessionStateError struct {
	QuestionID string
	State      SessionState
}

func (e *SessionStateError) Error() string {
	return fmt.Sprintf("question %q is %s", e.QuestionID, e.State)
}

func (e *SessionStateError) Unwrap() error { return ErrSessionState }
