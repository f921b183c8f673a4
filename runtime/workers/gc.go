package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// GCWorker runs Badger value-log garbage collection on a fixed interval.
// The sequence store writes one small value per admission, so a modest
// discard ratio keeps the value log from growing unbounded.
type GCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *GCWorker {
	return &GCWorker{log: log, db: db, interval: interval}
}

func (w *GCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			switch err := w.db.RunValueLogGC(0.5); err {
			case nil:
				w.log.Debug("Badger value log rewritten")
			case badger.ErrNoRewrite:
				// Nothing to reclaim this round.
			default:
				w.log.Warn("Badger value log GC failed", "err", err)
			}
		}
	}
}
