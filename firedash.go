// Package firedash wires the FIRE simulation dashboard: it submits
// user input to the remote simulation service and renders the returned
// statistics as chart documents.
package firedash

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/firedash/firedash/core"
	"github.com/firedash/firedash/plot"
)

// Simulator runs one simulation against the remote service.
type Simulator interface {
	Simulate(ctx context.Context, request core.SimulationRequest) (*core.SimulationResult, error)
}

// App orchestrates the run lifecycle: trigger state, submission,
// staleness guard, rendering, persistence and notification.
type App struct {
	simulator Simulator
	chart     *plot.Chart
	storage   core.SnapshotStore
	notifier  core.Notifier
	log       core.Logger

	// Monotonic submission counter; only the newest submission may
	// render its response.
	lastRun atomic.Uint64
}

// Option configures an App.
type Option func(*App)

// WithStorage persists the latest snapshot between sessions.
func WithStorage(storage core.SnapshotStore) Option {
	return func(app *App) {
		app.storage = storage
	}
}

// WithNotifier pushes run outcomes to a notification channel.
func WithNotifier(notifier core.Notifier) Option {
	return func(app *App) {
		app.notifier = notifier
	}
}

// NewApp creates the orchestrator and wires it to the chart.
func NewApp(simulator Simulator, chart *plot.Chart, log core.Logger, options ...Option) *App {
	app := &App{
		simulator: simulator,
		chart:     chart,
		log:       log,
	}

	for _, option := range options {
		option(app)
	}

	chart.SetRunner(app)
	return app
}

// Submit drives one simulation run end to end. The trigger state is
// restored exactly once whatever the outcome. When a second submission
// overtakes this one, the response is discarded and core.ErrStaleRun
// returned: the charts always reflect the newest submission.
func (a *App) Submit(ctx context.Context, request core.SimulationRequest) (*core.SimulationResult, error) {
	runID := a.lastRun.Add(1)
	submittedAt := time.Now()

	a.chart.BeginRun(runID)
	defer a.chart.FinishRun(runID)

	result, err := a.simulator.Simulate(ctx, request)
	if err != nil {
		a.log.WithError(err).WithField("run_id", runID).Error("simulation request failed")
		if a.notifier != nil {
			a.notifier.OnError(err)
		}
		return nil, err
	}

	if runID != a.lastRun.Load() {
		a.log.WithField("run_id", runID).Info("discarding result of superseded submission")
		return nil, core.ErrStaleRun
	}

	if err := a.chart.ApplyResult(runID, result); err != nil {
		return nil, err
	}

	a.persist(ctx, &core.Snapshot{
		RunID:       runID,
		Request:     request,
		Result:      result,
		SubmittedAt: submittedAt,
	})

	if a.notifier != nil {
		a.notifier.OnResult(result)
	}

	return result, nil
}

// Restore re-renders the snapshot left by a previous session, if any.
func (a *App) Restore(ctx context.Context) error {
	if a.storage == nil {
		return nil
	}

	snap, err := a.storage.Latest(ctx)
	if err != nil {
		return err
	}
	if snap == nil || snap.Result == nil {
		return nil
	}

	a.lastRun.Store(snap.RunID)
	return a.chart.ApplyResult(snap.RunID, snap.Result)
}

// persist saves the latest snapshot; a storage failure is logged but
// never fails the run that produced the result.
func (a *App) persist(ctx context.Context, snap *core.Snapshot) {
	if a.storage == nil {
		return
	}

	if err := a.storage.SaveLatest(ctx, snap); err != nil {
		a.log.WithError(err).Warn("failed to persist simulation snapshot")
	}
}
