package schedule

import (
	"sort"

	"overlay-quiz-service/internal/domain"
)

// Index answers time lookups over a built timeline. It is read-only after
// construction and safe for concurrent use.
type Index struct {
	windows []domain.ScheduledQuestion
}

// NewIndex copies the timeline's windows, which are sorted by construction.
func NewIndex(timeline domain.Timeline) *Index {
	windows := make([]domain.ScheduledQuestion, len(timeline.Questions))
	copy(windows, timeline.Questions)
	return &Index{windows: windows}
}

// Len returns the number of indexed windows.
func (x *Index) Len() int {
	return len(x.windows)
}

// ActiveAt returns the window containing t, if any.
func (x *Index) ActiveAt(t float64) (domain.ScheduledQuestion, bool) {
	// last window with start <= t
	i := sort.Search(len(x.windows), func(i int) bool { return x.windows[i].Start > t }) - 1
	if i < 0 || !x.windows[i].Contains(t) {
		return domain.ScheduledQuestion{}, false
	}
	return x.windows[i], true
}

// NextAfter returns the first window starting strictly after t.
func (x *Index) NextAfter(t float64) (domain.ScheduledQuestion, bool) {
	i := sort.Search(len(x.windows), func(i int) bool { return x.windows[i].Start > t })
	if i == len(x.windows) {
		return domain.ScheduledQuestion{}, false
	}
	return x.windows[i], true
}

// Window returns the window scheduled for questionID.
func (x *Index) Window(questionID string) (domain.ScheduledQuestion, bool) {
	for _, w := range x.windows {
		if w.QuestionID == questionID {
			return w, true
		}
	}
	return domain.ScheduledQuestion{}, false
}
