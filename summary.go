package firedash

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/firedash/firedash/core"
	"github.com/firedash/firedash/metric"
	"github.com/olekukonko/tablewriter"
)

// Summary writes a terminal report of a simulation result: the ruin
// probability per retirement age, its distribution, and the asset
// projection endpoints of each scenario.
func Summary(result *core.SimulationResult, out io.Writer) {
	rates := make([]float64, len(result.RuinRates))

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Retire Age", "Ruin %"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for i, point := range result.RuinRates {
		rates[i] = point.Rate
		table.Append([]string{
			strconv.Itoa(point.Age),
			fmt.Sprintf("%.1f %%", point.Rate),
		})
	}

	minIdx, minRate := metric.Min(rates)
	table.SetFooter([]string{
		fmt.Sprintf("BEST %d", result.RuinRates[minIdx].Age),
		fmt.Sprintf("%.1f %%", minRate),
	})
	table.Render()

	fmt.Fprintln(out, buffer.String())

	fmt.Fprintln(out, "------ RUIN PROBABILITY DISTRIBUTION -------")
	hist := histogram.Hist(10, rates)
	if err := histogram.Fprint(out, hist, histogram.Linear(10)); err != nil {
		fmt.Fprintf(out, "histogram unavailable: %v\n", err)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Mean ruin probability: %.1f %%\n", metric.Mean(rates))
	if idx := metric.FirstBelow(rates, 5.0); idx >= 0 {
		fmt.Fprintf(out, "First retirement age under 5%% ruin: %d\n", result.RuinRates[idx].Age)
	} else {
		fmt.Fprintln(out, "No simulated retirement age stays under 5% ruin")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "------ SCENARIO PROJECTIONS -------")
	for _, key := range core.ScenarioKeys {
		projection := result.Projections.Scenario(key)
		if projection == nil {
			fmt.Fprintf(out, "%-12s not available for this age range\n", key)
			continue
		}

		last := len(projection.Ages) - 1
		fmt.Fprintf(out, "%-12s retire at %d, assets at age %d: P90 %.0f / P50 %.0f / P10 %.0f\n",
			key, retireAge(key, projection), projection.Ages[last],
			projection.P90[last], projection.P50[last], projection.P10[last])
	}
}

// retireAge resolves the displayed retirement age of a scenario; only
// the recommended projection carries it in the payload.
func retireAge(key string, projection *core.ScenarioProjection) int {
	switch key {
	case core.ScenarioAge30:
		return 30
	case core.ScenarioAge40:
		return 40
	default:
		return projection.RetireAge
	}
}
