package domain

import "time"

// PlacementMode selects how question durations are turned into start times.
type PlacementMode string

const (
	// PlacementCustom uses each question's RequestedStart verbatim.
	PlacementCustom PlacementMode = "custom"
	// PlacementClusterStart packs questions from t=0.
	PlacementClusterStart PlacementMode = "cluster_start"
	// PlacementClusterEnd packs questions so the last one ends with the video.
	PlacementClusterEnd PlacementMode = "cluster_end"
	// PlacementEvenSpread leaves equal gaps before, between and after every question.
	PlacementEvenSpread PlacementMode = "even_spread"
)

// Placement is the mode plus its parameters for one timeline build.
type Placement struct {
	Mode           PlacementMode `json:"mode" yaml:"mode"`
	SpacingSeconds float64       `json:"spacingSeconds,omitempty" yaml:"spacingSeconds,omitempty"`
}

// Reward is the per-question reward configuration.
type Reward struct {
	BaseMeritos int `json:"baseMeritos" yaml:"baseMeritos" validate:"gte=0"`
	BaseOndas   int `json:"baseOndas" yaml:"baseOndas" validate:"gte=0"`
}

// QuestionSpec is an authored question definition. The core never mutates it.
type QuestionSpec struct {
	ID               string   `json:"id" yaml:"id" validate:"required"`
	DurationSeconds  float64  `json:"durationSeconds" yaml:"durationSeconds" validate:"gt=0"`
	TimeLimitSeconds float64  `json:"timeLimitSeconds" yaml:"timeLimitSeconds" validate:"gt=0"`
	AnswerKey        string   `json:"answerKey" yaml:"answerKey" validate:"required"`
	Reward           Reward   `json:"reward" yaml:"reward"`
	RequestedStart   *float64 `json:"requestedStart,omitempty" yaml:"requestedStart,omitempty"`
}

// QuestionSet is everything the authoring side hands over for one video.
type QuestionSet struct {
	VideoID              string         `json:"videoId" yaml:"videoId" validate:"required"`
	VideoDurationSeconds float64        `json:"videoDurationSeconds" yaml:"videoDurationSeconds"`
	Placement            Placement      `json:"placement" yaml:"placement"`
	Questions            []QuestionSpec `json:"questions" yaml:"questions"`
}

// ScheduledQuestion is a concrete [Start, End) window for one question.
type ScheduledQuestion struct {
	QuestionID string  `json:"questionId"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Contains reports whether t falls inside the half-open window.
func (q ScheduledQuestion) Contains(t float64) bool {
	return t >= q.Start && t < q.End
}

// Timeline is the immutable result of a schedule build.
type Timeline struct {
	VideoDurationSeconds float64             `json:"videoDurationSeconds"`
	Questions            []ScheduledQuestion `json:"questions"`
}

// SampleKind distinguishes periodic ticks from user seeks.
type SampleKind string

const (
	SampleTick SampleKind = "tick"
	SampleSeek SampleKind = "seek"
)

// PlaybackSample is one position report from the player.
type PlaybackSample struct {
	CurrentTime float64    `json:"currentTime"`
	Sequence    uint64     `json:"sequence"`
	Kind        SampleKind `json:"kind"`
}

// Outcome is how an answer session ended.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeSkipped   Outcome = "skipped"
)

// SessionState is the lifecycle position of an answer session.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateArmed     SessionState = "armed"
	StatePresented SessionState = "presented"
	StateAnswered  SessionState = "answered"
	StateTimedOut  SessionState = "timed_out"
	StateResolved  SessionState = "resolved"
	StateSkipped   SessionState = "skipped"
)

// Live reports whether the state still holds the overlay open.
func (s SessionState) Live() bool {
	return s == StateArmed || s == StatePresented
}

// Award is the amount granted for one question.
type Award struct {
	Meritos int `json:"meritos"`
	Ondas   int `json:"ondas"`
}

// Add sums two awards.
func (a Award) Add(b Award) Award {
	return Award{Meritos: a.Meritos + b.Meritos, Ondas: a.Ondas + b.Ondas}
}

// SessionResult summarizes a finished answer session.
type SessionResult struct {
	QuestionID        string  `json:"questionId"`
	Outcome           Outcome `json:"outcome"`
	RemainingAtAnswer float64 `json:"remainingAtAnswer"`
	Award             Award   `json:"award"`
}

// RewardRecord is what gets forwarded to the ledger when a question resolves.
type RewardRecord struct {
	PlaybackID string    `json:"playbackId"`
	VideoID    string    `json:"videoId"`
	ViewerID   string    `json:"viewerId"`
	QuestionID string    `json:"questionId"`
	Outcome    Outcome   `json:"outcome"`
	Award      Award     `json:"award"`
	RecordedAt time.Time `json:"recordedAt"`
}

// PlaybackSummary is reported when a playback session ends.
type PlaybackSummary struct {
	PlaybackID string          `json:"playbackId"`
	VideoID    string          `json:"videoId"`
	ViewerID   string          `json:"viewerId"`
	Results    []SessionResult `json:"results"`
	Total      Award           `json:"total"`
}
