package plot

import (
	"fmt"
	"time"

	"github.com/firedash/firedash/core"
	"github.com/firedash/firedash/metric"
)

// Visual encoding shared by all charts.
const (
	colorRuinLine    = "#e74c3c"
	colorRuinFill    = "rgba(231, 76, 60, 0.15)"
	colorThreshold   = "#2c3e50"
	colorOptimistic  = "#27ae60"
	colorNeutral     = "#2980b9"
	colorPessimistic = "#c0392b"

	// Ruin probability below this value is considered safe; drawn as a
	// fixed reference line independent of the data.
	safetyThreshold = 5.0

	placeholderMessage = "Not available for this age range"
)

// Renderer builds chart documents and swaps them into the registry.
// Every render call disposes whatever instance currently occupies the
// target slot before binding a replacement, so repeated runs never
// leak instances or stack ghost charts.
type Renderer struct {
	registry *Registry
	log      core.Logger
}

// NewRenderer creates a renderer backed by the given registry.
func NewRenderer(registry *Registry, log core.Logger) *Renderer {
	return &Renderer{registry: registry, log: log}
}

// Registry returns the registry owning the rendered instances.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// RenderRuinChart draws the ruin-probability line: filled, moderately
// smoothed, y-axis anchored at zero, with the safety threshold drawn
// as a dashed reference line at y=5.
func (r *Renderer) RenderRuinChart(runID uint64, ages core.Series[int], rates core.Series[float64]) (*Instance, *ChartDoc) {
	doc := &ChartDoc{
		Slot:   SlotRuin,
		Kind:   ChartKindLine,
		Title:  "Ruin Probability by Retirement Age",
		Labels: ages.Values(),
		Datasets: []Dataset{{
			Label:           "Ruin probability (%)",
			Data:            rates.Values(),
			BorderColor:     colorRuinLine,
			BackgroundColor: colorRuinFill,
			Fill:            true,
			Tension:         0.3,
			PointRadius:     2,
		}},
		Options: &ChartOptions{
			BeginAtZero:  true,
			SuggestedMax: metric.SuggestedMax(rates.Values(), safetyThreshold, 5),
			Annotation: &LineAnnotation{
				Y:          safetyThreshold,
				Label:      fmt.Sprintf("%.0f%% safety threshold", safetyThreshold),
				Color:      colorThreshold,
				BorderDash: []int{6, 6},
			},
		},
	}

	return r.bind(SlotRuin, runID, doc), doc
}

// RenderAssetChart draws the three percentile bands of one scenario
// sharing a single age axis, or a placeholder when the scenario is
// absent. For the placeholder no instance is created and the registry
// records "no chart" for the slot.
func (r *Renderer) RenderAssetChart(slot string, scenario ScenarioSeries, title string, runID uint64) (*Instance, *ChartDoc) {
	if !scenario.Present() {
		doc := &ChartDoc{
			Slot:    slot,
			Kind:    ChartKindEmpty,
			Title:   title,
			Message: placeholderMessage,
		}
		r.registry.DisposeIfPresent(slot)
		r.registry.Set(slot, nil)
		return nil, doc
	}

	doc := &ChartDoc{
		Slot:   slot,
		Kind:   ChartKindLine,
		Title:  title,
		Labels: scenario.Ages.Values(),
		Datasets: []Dataset{
			{
				Label:       "P90 (optimistic)",
				Data:        scenario.P90.Values(),
				BorderColor: colorOptimistic,
				BorderDash:  []int{6, 4},
				Tension:     0.2,
			},
			{
				Label:       "P50 (median)",
				Data:        scenario.P50.Values(),
				BorderColor: colorNeutral,
				Tension:     0.2,
			},
			{
				Label:       "P10 (pessimistic)",
				Data:        scenario.P10.Values(),
				BorderColor: colorPessimistic,
				BorderDash:  []int{2, 4},
				Tension:     0.2,
			},
		},
		Options: &ChartOptions{
			BeginAtZero:     true,
			InteractionMode: "index",
		},
	}

	return r.bind(slot, runID, doc), doc
}

// RenderResult renders all four slots for a validated simulation
// result and returns the documents in display order.
func (r *Renderer) RenderResult(runID uint64, result *core.SimulationResult) []*ChartDoc {
	docs := make([]*ChartDoc, 0, len(Slots))

	ages, rates := RuinSeries(result.RuinRates)
	_, ruinDoc := r.RenderRuinChart(runID, ages, rates)
	docs = append(docs, ruinDoc)

	for _, key := range core.ScenarioKeys {
		scenario := NewScenarioSeries(result.Projections.Scenario(key))
		_, doc := r.RenderAssetChart(scenarioSlot(key), scenario, scenarioTitle(key, scenario), runID)
		docs = append(docs, doc)
	}

	return docs
}

// bind swaps a fresh instance into the slot, dispose-before-create.
func (r *Renderer) bind(slot string, runID uint64, doc *ChartDoc) *Instance {
	r.registry.DisposeIfPresent(slot)

	instance := &Instance{
		slot:      slot,
		runID:     runID,
		doc:       doc,
		createdAt: time.Now(),
	}
	r.registry.Set(slot, instance)
	return instance
}

func scenarioSlot(key string) string {
	switch key {
	case core.ScenarioAge30:
		return SlotAge30
	case core.ScenarioAge40:
		return SlotAge40
	default:
		return SlotRecommended
	}
}

func scenarioTitle(key string, scenario ScenarioSeries) string {
	switch key {
	case core.ScenarioAge30:
		return "Asset Projection: Retire at 30"
	case core.ScenarioAge40:
		return "Asset Projection: Retire at 40"
	default:
		if scenario.Present() {
			return fmt.Sprintf("Asset Projection: Recommended (retire at %d)", scenario.RetireAge)
		}
		return "Asset Projection: Recommended"
	}
}
