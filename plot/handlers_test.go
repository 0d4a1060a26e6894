package plot

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/firedash/firedash/core"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner applies a canned result (or fails) when a submission
// comes in, standing in for the orchestrator.
type stubRunner struct {
	chart  *Chart
	runID  uint64
	result *core.SimulationResult
	err    error
}

func (s *stubRunner) Submit(_ context.Context, _ core.SimulationRequest) (*core.SimulationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := s.chart.ApplyResult(s.runID, s.result); err != nil {
		return nil, err
	}
	return s.result, nil
}

func newTestChart(t *testing.T) *Chart {
	t.Helper()
	chart, err := NewChart(nopLogger{}, WithDebug())
	require.NoError(t, err)
	return chart
}

func runBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	payload, err := json.Marshal(core.SimulationRequest{
		CurrentAge:           "35",
		LifeExpectancy:       "95",
		CurrentAssets:        "500000",
		AnnualIncome:         "60000",
		AnnualExpense:        "40000",
		PostRetirementIncome: "10000",
		Simulations:          "1000",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(payload)
}

func TestHandleRun_Success(t *testing.T) {
	chart := newTestChart(t)
	chart.SetRunner(&stubRunner{chart: chart, runID: 1, result: simulationResult()})

	recorder := httptest.NewRecorder()
	chart.handleRun(recorder, httptest.NewRequest(http.MethodPost, "/api/run", runBody(t)))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var payload dashboardPayload
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.False(t, payload.State.Busy)
	require.Len(t, payload.Charts, len(Slots))
	assert.Equal(t, SlotRuin, payload.Charts[0].Slot)
}

func TestHandleRun_MethodNotAllowed(t *testing.T) {
	chart := newTestChart(t)
	chart.SetRunner(&stubRunner{chart: chart, runID: 1, result: simulationResult()})

	recorder := httptest.NewRecorder()
	chart.handleRun(recorder, httptest.NewRequest(http.MethodGet, "/api/run", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestHandleRun_NoRunner(t *testing.T) {
	chart := newTestChart(t)

	recorder := httptest.NewRecorder()
	chart.handleRun(recorder, httptest.NewRequest(http.MethodPost, "/api/run", runBody(t)))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestHandleRun_MalformedBody(t *testing.T) {
	chart := newTestChart(t)
	chart.SetRunner(&stubRunner{chart: chart, runID: 1, result: simulationResult()})

	recorder := httptest.NewRecorder()
	chart.handleRun(recorder, httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleRun_RunnerFailure(t *testing.T) {
	chart := newTestChart(t)
	chart.SetRunner(&stubRunner{chart: chart, err: errors.New("engine unreachable")})

	recorder := httptest.NewRecorder()
	chart.handleRun(recorder, httptest.NewRequest(http.MethodPost, "/api/run", runBody(t)))

	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, "simulation failed, please try again", payload["error"])
}

func TestHandleRun_StaleRunAnswersWithCurrentCharts(t *testing.T) {
	chart := newTestChart(t)
	require.NoError(t, chart.ApplyResult(2, simulationResult()))
	chart.SetRunner(&stubRunner{chart: chart, err: core.ErrStaleRun})

	recorder := httptest.NewRecorder()
	chart.handleRun(recorder, httptest.NewRequest(http.MethodPost, "/api/run", runBody(t)))

	require.Equal(t, http.StatusOK, recorder.Code)

	var payload dashboardPayload
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Len(t, payload.Charts, len(Slots))
}

func TestHandleCharts(t *testing.T) {
	chart := newTestChart(t)

	recorder := httptest.NewRecorder()
	chart.handleCharts(recorder, httptest.NewRequest(http.MethodGet, "/api/charts", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var payload dashboardPayload
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.False(t, payload.State.Busy)
	assert.Empty(t, payload.Charts)

	require.NoError(t, chart.ApplyResult(1, simulationResult()))

	recorder = httptest.NewRecorder()
	chart.handleCharts(recorder, httptest.NewRequest(http.MethodGet, "/api/charts", nil))

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Len(t, payload.Charts, len(Slots))
}

func TestHandleHistory(t *testing.T) {
	chart := newTestChart(t)

	recorder := httptest.NewRecorder()
	chart.handleHistory(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	require.NoError(t, chart.ApplyResult(1, simulationResult()))

	recorder = httptest.NewRecorder()
	chart.handleHistory(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "age,ruin_rate", lines[0])
	assert.Equal(t, "60,2.00", lines[1])
	assert.Equal(t, "70,12.00", lines[3])
}

func TestApplyResult_StaleRunDiscarded(t *testing.T) {
	chart := newTestChart(t)
	require.NoError(t, chart.ApplyResult(2, simulationResult()))

	stale := simulationResult()
	stale.RuinRates = []core.RuinPoint{{Age: 99, Rate: 50}}
	assert.ErrorIs(t, chart.ApplyResult(1, stale), core.ErrStaleRun)

	docs := chart.CurrentDocs()
	require.NotEmpty(t, docs)
	assert.Equal(t, []int{60, 65, 70}, docs[0].Labels)
}

func TestBeginFinishRun_TriggerState(t *testing.T) {
	chart := newTestChart(t)

	chart.BeginRun(1)
	state := chart.CurrentState()
	assert.True(t, state.Busy)
	assert.Equal(t, "Simulating...", state.Label)

	chart.FinishRun(1)
	state = chart.CurrentState()
	assert.False(t, state.Busy)
	assert.Equal(t, "Run Simulation", state.Label)
}
