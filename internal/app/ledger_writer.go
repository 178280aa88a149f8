package app

import (
	"context"
	"log"
	"sync"
	"time"

	"overlay-quiz-service/internal/domain"
)

const (
	ledgerQueueSize    = 32
	ledgerWriteTimeout = 5 * time.Second
)

// ledgerWriter records rewards for one playback on its own goroutine, so
// ledger I/O never runs under the synchronizer lock. Records are written in
// the order they resolved. A full queue blocks the caller.
type ledgerWriter struct {
	playbackID string
	ledger     RewardLedger
	records    chan domain.RewardRecord
	done       chan struct{}
	closeOnce  sync.Once
}

func newLedgerWriter(playbackID string, ledger RewardLedger) *ledgerWriter {
	w := &ledgerWriter{
		playbackID: playbackID,
		ledger:     ledger,
		records:    make(chan domain.RewardRecord, ledgerQueueSize),
		done:       make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *ledgerWriter) run() {
	defer close(w.done)
	for record := range w.records {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerWriteTimeout)
		err := w.ledger.Record(ctx, record)
		cancel()
		if err != nil {
			log.Printf("playback %s: ledger record %s: %v", w.playbackID, record.QuestionID, err)
		}
	}
}

func (w *ledgerWriter) enqueue(record domain.RewardRecord) {
	w.records <- record
}

// close stops accepting records and waits until queued ones are written.
// Callers must make sure no enqueue runs concurrently.
func (w *ledgerWriter) close() {
	w.closeOnce.Do(func() { close(w.records) })
	<-w.done
}
