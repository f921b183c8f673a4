package workers

import (
	"context"
	"log/slog"
	"time"

	"stowroom/observability"
)

// ReporterWorker periodically logs the latest coordinator metrics snapshot.
type ReporterWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewReporterWorker(log *slog.Logger, monitoring *observability.MonitoringManager,
	interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, monitoring: monitoring, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) report() {
	stats := w.monitoring.GetLatest()
	w.log.Info("Coordinator stats",
		"rooms", stats.OpenRooms,
		"connections", stats.OpenConnections,
		"admissions", stats.Admissions,
		"broadcasts", stats.Broadcasts,
		"relays", stats.Relays,
		"denied", stats.Denied,
		"invalid", stats.Invalid,
		"evictions", stats.Evictions,
		"alloc_mb", stats.AllocMemMb,
		"cpu_pct", stats.CPUPercent,
	)
}
