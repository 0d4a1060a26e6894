package firedash

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/firedash/firedash/core"
	"github.com/firedash/firedash/plot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) WithField(string, any) core.Logger { return nopLogger{} }
func (nopLogger) WithFields(map[string]any) core.Logger { return nopLogger{} }
func (nopLogger) WithError(error) core.Logger { return nopLogger{} }
func (nopLogger) Print(...any) {}
func (nopLogger) Trace(...any) {}
func (nopLogger) Debug(...any) {}
func (nopLogger) Info(...any) {}
func (nopLogger) Warn(...any) {}
func (nopLogger) Error(...any) {}
func (nopLogger) Fatal(...any) {}
func (nopLogger) Panic(...any) {}
func (nopLogger) Printf(string, ...any) {}
func (nopLogger) Tracef(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any) {}
func (nopLogger) Warnf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Fatalf(string, ...any) {}
func (nopLogger) Panicf(string, ...any) {}
func (nopLogger) SetLevel(core.Level) {}
func (nopLogger) GetLevel() core.Level { return core.DebugLevel }

// gatedSimulator answers each request with a canned result keyed by the
// request's current_age field, optionally blocking until released.
type gatedSimulator struct {
	mu      sync.Mutex
	results map[string]*core.SimulationResult
	gates   map[string]chan struct{}
	err     error
}

func (g *gatedSimulator) Simulate(ctx context.Context, request core.SimulationRequest) (*core.SimulationResult, error) {
	g.mu.Lock()
	gate := g.gates[request.CurrentAge]
	result := g.results[request.CurrentAge]
	err := g.err
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func resultWithAges(ages ...int) *core.SimulationResult {
	points := make([]core.RuinPoint, 0, len(ages))
	values := make([]float64, 0, len(ages))
	for i, age := range ages {
		points = append(points, core.RuinPoint{Age: age, Rate: float64(i + 1)})
		values = append(values, float64(100+10*i))
	}
	return &core.SimulationResult{
		RuinRates: points,
		Projections: core.Projections{
			Recommended: &core.ScenarioProjection{
				Ages:      ages,
				P90:       values,
				P50:       values,
				P10:       values,
				RetireAge: 50,
			},
		},
	}
}

func newChart(t *testing.T) *plot.Chart {
	t.Helper()
	chart, err := plot.NewChart(nopLogger{}, plot.WithDebug())
	require.NoError(t, err)
	return chart
}

func request(currentAge string) core.SimulationRequest {
	return core.SimulationRequest{CurrentAge: currentAge, LifeExpectancy: "95"}
}

func TestSubmit_SuccessRestoresTrigger(t *testing.T) {
	chart := newChart(t)
	simulator := &gatedSimulator{
		results: map[string]*core.SimulationResult{"35": resultWithAges(60, 65)},
	}
	app := NewApp(simulator, chart, nopLogger{})

	result, err := app.Submit(context.Background(), request("35"))
	require.NoError(t, err)
	require.NotNil(t, result)

	state := chart.CurrentState()
	assert.False(t, state.Busy)
	assert.Equal(t, "Run Simulation", state.Label)

	docs := chart.CurrentDocs()
	require.Len(t, docs, len(plot.Slots))
	assert.Equal(t, []int{60, 65}, docs[0].Labels)
}

func TestSubmit_FailureRestoresTrigger(t *testing.T) {
	chart := newChart(t)
	simulator := &gatedSimulator{err: errors.New("engine down")}
	app := NewApp(simulator, chart, nopLogger{})

	_, err := app.Submit(context.Background(), request("35"))
	require.Error(t, err)

	state := chart.CurrentState()
	assert.False(t, state.Busy)
	assert.Equal(t, "Run Simulation", state.Label)

	// A failed run leaves the charts untouched.
	assert.Empty(t, chart.CurrentDocs())
}

func TestSubmit_NewestSubmissionWins(t *testing.T) {
	chart := newChart(t)
	slowGate := make(chan struct{})
	simulator := &gatedSimulator{
		results: map[string]*core.SimulationResult{
			"slow": resultWithAges(60, 65),
			"fast": resultWithAges(70, 75),
		},
		gates: map[string]chan struct{}{"slow": slowGate},
	}
	app := NewApp(simulator, chart, nopLogger{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := app.Submit(context.Background(), request("slow"))
		firstDone <- err
	}()

	// Let the first submission claim its run id before the second starts.
	require.Eventually(t, func() bool {
		return app.lastRun.Load() == 1
	}, time.Second, time.Millisecond)

	_, err := app.Submit(context.Background(), request("fast"))
	require.NoError(t, err)

	// Release the slow response; it arrives after being superseded.
	close(slowGate)
	require.ErrorIs(t, <-firstDone, core.ErrStaleRun)

	docs := chart.CurrentDocs()
	require.Len(t, docs, len(plot.Slots))
	assert.Equal(t, []int{70, 75}, docs[0].Labels)

	state := chart.CurrentState()
	assert.False(t, state.Busy)
	assert.Equal(t, "Run Simulation", state.Label)
}

type memoryStore struct {
	mu   sync.Mutex
	snap *core.Snapshot
}

func (m *memoryStore) SaveLatest(_ context.Context, snap *core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

func (m *memoryStore) Latest(_ context.Context) (*core.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func TestSubmit_PersistsSnapshot(t *testing.T) {
	chart := newChart(t)
	simulator := &gatedSimulator{
		results: map[string]*core.SimulationResult{"35": resultWithAges(60, 65)},
	}
	store := &memoryStore{}
	app := NewApp(simulator, chart, nopLogger{}, WithStorage(store))

	_, err := app.Submit(context.Background(), request("35"))
	require.NoError(t, err)

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.EqualValues(t, 1, snap.RunID)
	assert.Equal(t, "35", snap.Request.CurrentAge)
}

func TestRestore_RendersPreviousSession(t *testing.T) {
	chart := newChart(t)
	simulator := &gatedSimulator{
		results: map[string]*core.SimulationResult{"36": resultWithAges(80, 85)},
	}
	store := &memoryStore{snap: &core.Snapshot{
		RunID:  7,
		Result: resultWithAges(60, 65),
	}}
	app := NewApp(simulator, chart, nopLogger{}, WithStorage(store))

	require.NoError(t, app.Restore(context.Background()))

	docs := chart.CurrentDocs()
	require.Len(t, docs, len(plot.Slots))
	assert.Equal(t, []int{60, 65}, docs[0].Labels)

	// New submissions continue the restored run id sequence.
	_, err := app.Submit(context.Background(), request("36"))
	require.NoError(t, err)
	assert.EqualValues(t, 8, app.lastRun.Load())
	assert.Equal(t, []int{80, 85}, chart.CurrentDocs()[0].Labels)
}

func TestRestore_NoSnapshotIsNoop(t *testing.T) {
	chart := newChart(t)
	app := NewApp(&gatedSimulator{}, chart, nopLogger{}, WithStorage(&memoryStore{}))

	require.NoError(t, app.Restore(context.Background()))
	assert.Empty(t, chart.CurrentDocs())
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []*core.SimulationResult
	errs    []error
}

func (r *recordingNotifier) Notify(string) {}

func (r *recordingNotifier) OnResult(result *core.SimulationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recordingNotifier) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func TestSubmit_NotifiesOutcome(t *testing.T) {
	chart := newChart(t)
	simulator := &gatedSimulator{
		results: map[string]*core.SimulationResult{"35": resultWithAges(60, 65)},
	}
	notifier := &recordingNotifier{}
	app := NewApp(simulator, chart, nopLogger{}, WithNotifier(notifier))

	_, err := app.Submit(context.Background(), request("35"))
	require.NoError(t, err)
	require.Len(t, notifier.results, 1)
	assert.Empty(t, notifier.errs)

	simulator.mu.Lock()
	simulator.err = errors.New("engine down")
	simulator.mu.Unlock()

	_, err = app.Submit(context.Background(), request("35"))
	require.Error(t, err)
	assert.Len(t, notifier.errs, 1)
}
