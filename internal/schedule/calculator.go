// Package schedule places question windows on a video timeline and indexes them
// for playback-time lookups.
package schedule

import (
	"fmt"

	"overlay-quiz-service/internal/domain"
)

// BuildSet builds the timeline for an authored question set.
func BuildSet(set domain.QuestionSet) (domain.Timeline, error) {
	return Build(set.VideoDurationSeconds, set.Questions, set.Placement)
}

// Build turns ordered question specs into non-overlapping windows. It is
// deterministic and fails fast: no partial timeline is returned on error.
func Build(videoDuration float64, specs []domain.QuestionSpec, placement domain.Placement) (domain.Timeline, error) {
	if !finite(videoDuration) || videoDuration <= 0 {
		return domain.Timeline{}, fmt.Errorf("%w: video duration %g", domain.ErrInvalidPlacement, videoDuration)
	}
	if !finite(placement.SpacingSeconds) || placement.SpacingSeconds < 0 {
		return domain.Timeline{}, fmt.Errorf("%w: spacing %g", domain.ErrInvalidPlacement, placement.SpacingSeconds)
	}
	if err := domain.ValidateQuestions(specs); err != nil {
		return domain.Timeline{}, err
	}

	var (
		windows []domain.ScheduledQuestion
		err     error
	)
	switch placement.Mode {
	case domain.PlacementCustom:
		windows, err = placeCustom(specs)
	case domain.PlacementClusterStart:
		windows, err = placeClusterStart(videoDuration, specs, placement.SpacingSeconds)
	case domain.PlacementClusterEnd:
		windows, err = placeClusterEnd(videoDuration, specs, placement.SpacingSeconds)
	case domain.PlacementEvenSpread:
		windows, err = placeEvenSpread(videoDuration, specs)
	default:
		err = fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidPlacement, placement.Mode)
	}
	if err != nil {
		return domain.Timeline{}, err
	}

	if err := ValidateWindows(videoDuration, windows); err != nil {
		return domain.Timeline{}, err
	}
	return domain.Timeline{VideoDurationSeconds: videoDuration, Questions: windows}, nil
}

func placeCustom(specs []domain.QuestionSpec) ([]domain.ScheduledQuestion, error) {
	windows := make([]domain.ScheduledQuestion, 0, len(specs))
	for i, spec := range specs {
		if spec.RequestedStart == nil {
			return nil, &domain.InvalidQuestionSpecError{
				Index:      i,
				QuestionID: spec.ID,
				Field:      "RequestedStart",
				Reason:     "is required in custom mode",
			}
		}
		windows = append(windows, window(spec, *spec.RequestedStart))
	}
	return windows, nil
}

func placeClusterStart(videoDuration float64, specs []domain.QuestionSpec, spacing float64) ([]domain.ScheduledQuestion, error) {
	windows := packFrom(0, specs, spacing)
	if n := len(windows); n > 0 && windows[n-1].End > videoDuration+boundsTolerance {
		return nil, &domain.QuestionOverflowError{Required: windows[n-1].End, VideoDuration: videoDuration}
	}
	return windows, nil
}

func placeClusterEnd(videoDuration float64, specs []domain.QuestionSpec, spacing float64) ([]domain.ScheduledQuestion, error) {
	if len(specs) == 0 {
		return []domain.ScheduledQuestion{}, nil
	}
	block := totalDuration(specs) + spacing*float64(len(specs)-1)
	if block > videoDuration+boundsTolerance {
		return nil, &domain.QuestionOverflowError{Required: block, VideoDuration: videoDuration}
	}
	start := videoDuration - block
	if start < 0 {
		start = 0
	}
	return packFrom(start, specs, spacing), nil
}

func placeEvenSpread(videoDuration float64, specs []domain.QuestionSpec) ([]domain.ScheduledQuestion, error) {
	total := totalDuration(specs)
	gap := EvenSpreadGap(videoDuration, specs)
	if gap < 0 {
		return nil, &domain.InsufficientDurationError{TotalQuestionSeconds: total, VideoDuration: videoDuration}
	}
	return packFrom(gap, specs, gap), nil
}

// EvenSpreadGap is the gap left before, between and after every question:
// (videoDuration - sum(durations)) / (n + 1).
func EvenSpreadGap(videoDuration float64, specs []domain.QuestionSpec) float64 {
	return (videoDuration - totalDuration(specs)) / float64(len(specs)+1)
}

// packFrom lays specs out back to back from start with gap between consecutive windows.
func packFrom(start float64, specs []domain.QuestionSpec, gap float64) []domain.ScheduledQuestion {
	windows := make([]domain.ScheduledQuestion, 0, len(specs))
	for i, spec := range specs {
		if i > 0 {
			start = windows[i-1].End + gap
		}
		windows = append(windows, window(spec, start))
	}
	return windows
}

func window(spec domain.QuestionSpec, start float64) domain.ScheduledQuestion {
	return domain.ScheduledQuestion{QuestionID: spec.ID, Start: start, End: start + spec.DurationSeconds}
}

func totalDuration(specs []domain.QuestionSpec) float64 {
	var total float64
	for _, spec := range specs {
		total += spec.DurationSeconds
	}
	return total
}
