package core

import "fmt"

// Scenario keys as they appear in the simulation service payload.
const (
	ScenarioRecommended = "recommended"
	ScenarioAge30       = "age_30"
	ScenarioAge40       = "age_40"
)

// ScenarioKeys lists the scenario projections in display order.
var ScenarioKeys = []string{ScenarioRecommended, ScenarioAge30, ScenarioAge40}

// SimulationRequest is the payload sent to the simulation service.
// All fields are raw user input; parsing and validation belong to the
// service, the dashboard only guarantees the fields are present.
type SimulationRequest struct {
	CurrentAge           string `json:"current_age"`
	LifeExpectancy       string `json:"life_expectancy"`
	CurrentAssets        string `json:"current_assets"`
	AnnualIncome         string `json:"annual_income"`
	AnnualExpense        string `json:"annual_expense"`
	PostRetirementIncome string `json:"post_retirement_income"`
	Simulations          string `json:"simulations"`
}

// RuinPoint is the probability (0-100) that assets are depleted by Age.
type RuinPoint struct {
	Age  int     `json:"age"`
	Rate float64 `json:"rate"`
}

// ScenarioProjection holds the percentile bands of simulated asset value
// for one retirement-age scenario. P90, P50 and P10 run parallel to Ages.
type ScenarioProjection struct {
	Ages      []int     `json:"ages"`
	P90       []float64 `json:"p90"`
	P50       []float64 `json:"p50"`
	P10       []float64 `json:"p10"`
	RetireAge int       `json:"retire_age,omitempty"`
}

// Projections groups the three named scenarios. A nil entry means the
// scenario's retirement age lies before the user's current age and was
// not simulated.
type Projections struct {
	Recommended *ScenarioProjection `json:"recommended"`
	Age30       *ScenarioProjection `json:"age_30"`
	Age40       *ScenarioProjection `json:"age_40"`
}

// Scenario returns the projection for the given scenario key, or nil.
func (p Projections) Scenario(key string) *ScenarioProjection {
	switch key {
	case ScenarioRecommended:
		return p.Recommended
	case ScenarioAge30:
		return p.Age30
	case ScenarioAge40:
		return p.Age40
	}
	return nil
}

// SimulationResult is the payload returned by the simulation service.
type SimulationResult struct {
	RuinRates   []RuinPoint `json:"ruin_rates"`
	Projections Projections `json:"projections"`
}

// ValidateResult checks the shape invariants the renderer depends on.
// They originate from an external service, so a violation is reported
// loudly instead of being silently mis-plotted.
func ValidateResult(result *SimulationResult) error {
	if result == nil {
		return ErrNilResult
	}

	if len(result.RuinRates) == 0 {
		return ErrEmptyRuinRates
	}

	for i := 1; i < len(result.RuinRates); i++ {
		if result.RuinRates[i].Age <= result.RuinRates[i-1].Age {
			return fmt.Errorf("ruin_rates ages not strictly increasing at index %d: %w", i, ErrUnorderedAges)
		}
	}

	for _, key := range ScenarioKeys {
		projection := result.Projections.Scenario(key)
		if projection == nil {
			continue
		}

		n := len(projection.Ages)
		if n == 0 || len(projection.P90) != n || len(projection.P50) != n || len(projection.P10) != n {
			return fmt.Errorf("scenario %q: ages=%d p90=%d p50=%d p10=%d: %w",
				key, n, len(projection.P90), len(projection.P50), len(projection.P10), ErrSeriesLength)
		}
	}

	return nil
}

// Notifier receives run lifecycle notifications
type Notifier interface {
	Notify(string)
	OnResult(result *SimulationResult)
	OnError(err error)
}

// NotifierWithStart is a notifier that requires an explicit start
type NotifierWithStart interface {
	Notifier
	Start()
}
