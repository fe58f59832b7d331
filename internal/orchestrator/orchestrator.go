// Package orchestrator is the engine's public API surface (§6.2): a
// stateless composition of the stores, the condition evaluator, the chain
// resolver, the reminder manager, and the schedule engine, plus the event
// emission and triggerReflow machinery described in §4.8.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dayplan/autoplanner/internal/adapter"
	"github.com/dayplan/autoplanner/internal/apperr"
	"github.com/dayplan/autoplanner/internal/cache"
	"github.com/dayplan/autoplanner/internal/chain"
	"github.com/dayplan/autoplanner/internal/condition"
	"github.com/dayplan/autoplanner/internal/engine"
	"github.com/dayplan/autoplanner/internal/model"
	"github.com/dayplan/autoplanner/internal/reminder"
	"github.com/dayplan/autoplanner/internal/store"
	"github.com/dayplan/autoplanner/internal/temporal"
)

// EventName identifies one of the three events an Orchestrator emits.
type EventName string

const (
	EventReflow      EventName = "reflow"
	EventConflict    EventName = "conflict"
	EventReminderDue EventName = "reminderDue"
)

// HandlerToken identifies a registered event handler for later removal via
// Off.
type HandlerToken uint64

type handlerEntry struct {
	token HandlerToken
	fn    func(any)
}

// IDGenerator mints a new entity id. Defaults to google/uuid.
type IDGenerator func() model.ID

func defaultIDGenerator() model.ID { return model.ID(uuid.NewString()) }

// Config configures Orchestrator construction.
type Config struct {
	Adapter  adapter.Adapter
	Timezone string // IANA name; empty means UTC
	NewID    IDGenerator
	Logger   *slog.Logger
}

// Orchestrator is stateless over its own data: all state lives in the
// stores and caches it composes (§4.8).
type Orchestrator struct {
	adapter adapter.Adapter
	newID   IDGenerator
	loc     *time.Location
	log     *slog.Logger

	seriesStore     *store.SeriesStore
	completionStore *store.CompletionStore
	exceptionStore  *store.ExceptionStore
	linkStore       *store.LinkStore
	constraintStore *store.ConstraintStore
	reminderStore   *store.ReminderStore

	chainResolver *chain.Resolver
	condEval      *condition.Evaluator
	reminderMgr   *reminder.Manager
	scheduleEng   *engine.Engine

	handlers  map[EventName][]handlerEntry
	nextToken HandlerToken

	cachedConflicts []model.Conflict
}

// New validates and constructs an Orchestrator. Construction order
// follows §4.8: exceptionStore, seriesStore, completionStore -> linkStore
// (feeding the chain resolver), constraintStore, conditionEvaluator,
// reminderManager -> scheduleEngine.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Adapter == nil {
		return nil, apperr.New(apperr.Validation, "orchestrator: adapter must not be nil")
	}
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	newID := cfg.NewID
	if newID == nil {
		newID = defaultIDGenerator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exceptionStore := store.NewExceptionStore(cfg.Adapter)
	seriesStore := store.NewSeriesStore(cfg.Adapter)
	completionStore := store.NewCompletionStore(cfg.Adapter)

	linkStore := store.NewLinkStore(cfg.Adapter)
	constraintStore := store.NewConstraintStore(cfg.Adapter)
	condEval := condition.New(seriesStore, completionStore)
	reminderStore := store.NewReminderStore(cfg.Adapter)
	reminderMgr := reminder.New(reminderStore, seriesStore, completionStore, exceptionStore, condEval, loc)

	chainResolver := chain.New(linkStore, chain.IDGenerator(newID))

	scheduleEng := engine.New(engine.Deps{
		Series:     seriesStore,
		Completion: completionStore,
		Exception:  exceptionStore,
		Link:       linkStore,
		Constraint: constraintStore,
		Condition:  condEval,
		Chain:      chainResolver,
		Location:   loc,
	})

	return &Orchestrator{
		adapter:         cfg.Adapter,
		newID:           newID,
		loc:             loc,
		log:             logger,
		seriesStore:     seriesStore,
		completionStore: completionStore,
		exceptionStore:  exceptionStore,
		linkStore:       linkStore,
		constraintStore: constraintStore,
		reminderStore:   reminderStore,
		chainResolver:   chainResolver,
		condEval:        condEval,
		reminderMgr:     reminderMgr,
		scheduleEng:     scheduleEng,
		handlers:        make(map[EventName][]handlerEntry),
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "orchestrator: invalid timezone %q: %v", name, err)
	}
	return loc, nil
}

// Hydrate loads every store from the adapter in the cross-store-consistent
// order specified by §4.8, then rebuilds the condition dependency index.
func (o *Orchestrator) Hydrate(ctx context.Context) error {
	for _, h := range []func(context.Context) error{
		o.linkStore.Hydrate,
		o.completionStore.Hydrate,
		o.exceptionStore.Hydrate,
		o.constraintStore.Hydrate,
		o.reminderStore.Hydrate,
		o.seriesStore.Hydrate,
	} {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return o.condEval.RebuildIndex(ctx)
}

// On registers a handler for the named event and returns a token that Off
// can later use to remove it. Handlers run synchronously in registration
// order; a panicking or erroring handler is logged and does not prevent
// subsequent handlers or the caller from proceeding (§4.8, §9 "Event
// emission").
func (o *Orchestrator) On(event EventName, handler func(any)) HandlerToken {
	o.nextToken++
	token := o.nextToken
	o.handlers[event] = append(o.handlers[event], handlerEntry{token: token, fn: handler})
	return token
}

// Off removes the handler previously registered by On under the returned
// token. Removing an unknown or already-removed token is a no-op.
func (o *Orchestrator) Off(event EventName, token HandlerToken) {
	entries := o.handlers[event]
	for i, e := range entries {
		if e.token == token {
			o.handlers[event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

func (o *Orchestrator) emit(event EventName, payload any) {
	for _, e := range o.handlers[event] {
		o.safeInvoke(event, e.fn, payload)
	}
}

func (o *Orchestrator) safeInvoke(event EventName, handler func(any), payload any) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("event handler panicked", "event", string(event), "recovered", r)
		}
	}()
	handler(payload)
}

// triggerReflow implements §4.8: invalidate the engine at scope, rebuild
// the default today+7-days window to warm cachedConflicts, and emit
// reflow/conflict events.
func (o *Orchestrator) triggerReflow(ctx context.Context, scope model.InvalidationScope) {
	o.scheduleEng.Invalidate(scope)

	today := temporal.NewDate(time.Now().In(o.loc))
	sched, err := o.scheduleEng.GetSchedule(ctx, today, today.AddDays(7))
	if err != nil {
		o.log.Error("triggerReflow: default-window build failed", "error", err)
		return
	}
	o.cachedConflicts = sched.Conflicts

	o.emit(EventReflow, sched)
	for _, c := range sched.Conflicts {
		o.emit(EventConflict, c)
	}
}

// GetCacheStats exposes the engine's pattern/CSP hit-miss counters and
// schedule generation (§6.2).
func (o *Orchestrator) GetCacheStats() cache.Stats {
	return o.scheduleEng.Stats()
}

// GetConditionDeps returns the series ids whose conditions reference
// seriesID via completionCount (§6.2 getConditionDeps).
func (o *Orchestrator) GetConditionDeps(seriesID model.ID) []model.ID {
	return o.condEval.Dependents(seriesID)
}
