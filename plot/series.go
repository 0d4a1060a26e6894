package plot

import (
	"github.com/firedash/firedash/core"

	"github.com/samber/lo"
)

// RuinSeries projects ruin points into the two parallel series the ruin
// chart draws: x = age, y = depletion probability. No resampling or
// interpolation happens here; smoothing is purely cosmetic and belongs
// to the chart options.
func RuinSeries(points []core.RuinPoint) (ages core.Series[int], rates core.Series[float64]) {
	ages = lo.Map(points, func(p core.RuinPoint, _ int) int { return p.Age })
	rates = lo.Map(points, func(p core.RuinPoint, _ int) float64 { return p.Rate })
	return ages, rates
}

// ScenarioSeries is the tagged chart-side view of one scenario
// projection: either Present with four parallel series, or Absent when
// the scenario's retirement age precedes the user's current age.
type ScenarioSeries struct {
	present   bool
	Ages      core.Series[int]
	P90       core.Series[float64]
	P50       core.Series[float64]
	P10       core.Series[float64]
	RetireAge int
}

// NewScenarioSeries maps a scenario projection into chart series.
// A nil projection yields the Absent variant.
func NewScenarioSeries(projection *core.ScenarioProjection) ScenarioSeries {
	if projection == nil {
		return ScenarioSeries{}
	}

	return ScenarioSeries{
		present:   true,
		Ages:      core.Series[int](projection.Ages),
		P90:       core.Series[float64](projection.P90),
		P50:       core.Series[float64](projection.P50),
		P10:       core.Series[float64](projection.P10),
		RetireAge: projection.RetireAge,
	}
}

// Present reports whether the scenario carries data to draw.
func (s ScenarioSeries) Present() bool {
	return s.present
}
