package schedule

import (
	"math"

	"overlay-quiz-service/internal/domain"
)

// boundsTolerance absorbs IEEE rounding when a layout ends exactly on the video end.
const boundsTolerance = 1e-9

// ValidateWindows checks windows in the given order and returns the first violation:
// a negative or non-finite bound, an adjacent pair with end_i > start_{i+1}, or an end past the video.
func ValidateWindows(videoDuration float64, windows []domain.ScheduledQuestion) error {
	for i, w := range windows {
		if w.Start < 0 || !finite(w.Start) || !finite(w.End) {
			return &domain.OutOfBoundsError{Index: i, Start: w.Start, End: w.End, VideoDuration: videoDuration}
		}
		if i > 0 && windows[i-1].End > w.Start {
			return &domain.OverlapError{First: i - 1, Second: i, End: windows[i-1].End, Start: w.Start}
		}
		if w.End > videoDuration+boundsTolerance {
			return &domain.OutOfBoundsError{Index: i, Start: w.Start, End: w.End, VideoDuration: videoDuration}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
