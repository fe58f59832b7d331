package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/temporal"
)

// WarmupScheduler runs Check on a minute cadence via robfig/cron/v3, the
// same cron-expression library the teacher's ScheduledJobScheduler uses to
// parse due-job schedules; here it drives the loop itself rather than
// gating a ticker, since a reminder check has no variable-cron schedule of
// its own. Adapted from the teacher's ticker-based ScheduledJobScheduler
// (one running instance, no leader election).
type WarmupScheduler struct {
	manager *Manager
	loc     *time.Location
	emit    func(Pending)
	log     *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID
}

func NewWarmupScheduler(manager *Manager, loc *time.Location, emit func(Pending), logger *slog.Logger) *WarmupScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WarmupScheduler{manager: manager, loc: loc, emit: emit, log: logger, cron: cron.New()}
}

// Start schedules a check every minute and runs one immediately to catch
// anything due since the last process start.
func (w *WarmupScheduler) Start(ctx context.Context) error {
	w.runOnce(ctx)

	id, err := w.cron.AddFunc("@every 1m", func() { w.runOnce(ctx) })
	if err != nil {
		return err
	}
	w.entryID = id
	w.cron.Start()
	w.log.Info("reminder scheduler started", "interval", "1m")
	return nil
}

// Stop halts the cron loop, waiting for any in-flight run to finish.
func (w *WarmupScheduler) Stop() {
	if w.cron != nil {
		ctx := w.cron.Stop()
		<-ctx.Done()
	}
	w.log.Info("reminder scheduler stopped")
}

func (w *WarmupScheduler) runOnce(ctx context.Context) {
	asOf := model.DateTime(time.Now().In(w.loc).Format(temporal.DateTimeLayout))
	if err := w.manager.Check(ctx, asOf, w.emit); err != nil {
		w.log.Error("reminder check failed", "error", err)
	}
}
