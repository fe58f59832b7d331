// Command autoplannerd is a minimal demo harness for the schedule engine:
// it wires an in-memory adapter, seeds a couple of series, and prints the
// next week's schedule and any conflicts. A production deployment would
// swap the memory adapter for a database-backed one and add a transport
// (HTTP/gRPC) in front of the orchestrator.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dayplan/autoplanner/internal/adapter/memory"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/orchestrator"
	"github.com/dayplan/autoplanner/internal/temporal"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(getEnv("LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)

	logger.Info("starting autoplannerd", "version", version)

	timezone := getEnv("AUTOPLANNER_TIMEZONE", "America/New_York")
	remindersEnabled := getEnvBool("AUTOPLANNER_REMINDERS_ENABLED", true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := orchestrator.New(orchestrator.Config{
		Adapter:  memory.New(),
		Timezone: timezone,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to construct orchestrator", "error", err)
		os.Exit(1)
	}

	if err := o.Hydrate(ctx); err != nil {
		logger.Error("hydrate failed", "error", err)
		os.Exit(1)
	}

	o.On(orchestrator.EventReflow, func(payload any) {
		sched, ok := payload.(*model.Schedule)
		if !ok {
			return
		}
		logger.Info("reflow complete", "instances", len(sched.Instances), "conflicts", len(sched.Conflicts))
	})
	o.On(orchestrator.EventConflict, func(payload any) {
		c, ok := payload.(model.Conflict)
		if !ok {
			return
		}
		logger.Warn("conflict detected", "description", c.Describe())
	})
	o.On(orchestrator.EventReminderDue, func(payload any) {
		logger.Info("reminder due", "payload", payload)
	})

	seedDemoSeries(ctx, o, logger)

	today := temporal.NewDate(time.Now().In(time.Local))
	sched, err := o.GetSchedule(ctx, today, today.AddDays(7))
	if err != nil {
		logger.Error("getSchedule failed", "error", err)
	} else {
		logger.Info("demo schedule built", "from", today, "instances", len(sched.Instances), "conflicts", len(sched.Conflicts))
		for _, line := range model.DescribeConflicts(sched.Conflicts) {
			logger.Info("conflict", "description", line)
		}
	}

	var scheduler interface{ Stop() }
	if remindersEnabled {
		s, err := o.StartReminderScheduler(ctx)
		if err != nil {
			logger.Error("failed to start reminder scheduler", "error", err)
		} else {
			scheduler = s
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
}

func seedDemoSeries(ctx context.Context, o *orchestrator.Orchestrator, logger *slog.Logger) {
	runTime := model.Time("07:00:00")
	run := &model.Series{
		Title: "Morning run",
		Patterns: []*model.Pattern{
			{Kind: model.Weekly, DaysOfWeek: [7]bool{1: true, 3: true, 5: true}, Time: &runTime, Duration: 30},
		},
	}
	if _, err := o.CreateSeries(ctx, run); err != nil {
		logger.Error("seed: create morning run failed", "error", err)
	}

	standup := &model.Series{
		Title: "Team standup",
		Patterns: []*model.Pattern{
			{Kind: model.Daily, Time: timePtr("09:30:00"), Duration: 15, Fixed: true},
		},
	}
	if _, err := o.CreateSeries(ctx, standup); err != nil {
		logger.Error("seed: create standup failed", "error", err)
	}
}

func timePtr(s string) *model.Time {
	t := model.Time(s)
	return &t
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		slog.Warn("invalid boolean env value, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}
