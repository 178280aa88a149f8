package memory

import (
	"context"
	"sync"

	"overlay-quiz-service/internal/domain"
)

// Ledger keeps reward records in memory.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.RewardRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Record(_ context.Context, record domain.RewardRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

// Records returns a copy of everything recorded so far.
func (l *Ledger) Records() []domain.RewardRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.RewardRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Totals sums the awards recorded for a viewer.
func (l *Ledger) Totals(viewerID string) domain.Award {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total domain.Award
	for _, r := range l.records {
		if r.ViewerID == viewerID {
			total = total.Add(r.Award)
		}
	}
	return total
}
