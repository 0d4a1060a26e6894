package plot

// Canvas slot identifiers. Each slot holds at most one live chart.
const (
	SlotRuin        = "ruinChart"
	SlotRecommended = "assetChartRecommended"
	SlotAge30       = "assetChartAge30"
	SlotAge40       = "assetChartAge40"
)

// Slots lists all canvas slots in display order.
var Slots = []string{SlotRuin, SlotRecommended, SlotAge30, SlotAge40}

// ChartKind distinguishes a drawable line chart from the empty-state
// placeholder painted when a scenario has no data.
type ChartKind string

const (
	ChartKindLine  ChartKind = "line"
	ChartKindEmpty ChartKind = "empty"
)

// ChartDoc is a renderable chart document, shaped after the Chart.js
// configuration the frontend applies to its canvas.
type ChartDoc struct {
	Slot     string        `json:"slot"`
	Kind     ChartKind     `json:"kind"`
	Title    string        `json:"title,omitempty"`
	Labels   []int         `json:"labels,omitempty"`
	Datasets []Dataset     `json:"datasets,omitempty"`
	Options  *ChartOptions `json:"options,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// Dataset is one drawn line within a chart document.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderDash      []int     `json:"borderDash,omitempty"`
	Fill            bool      `json:"fill"`
	Tension         float64   `json:"tension"`
	PointRadius     float64   `json:"pointRadius"`
}

// ChartOptions carries axis, interaction and annotation settings.
type ChartOptions struct {
	BeginAtZero     bool            `json:"beginAtZero"`
	SuggestedMax    float64         `json:"suggestedMax,omitempty"`
	InteractionMode string          `json:"interactionMode,omitempty"`
	Annotation      *LineAnnotation `json:"annotation,omitempty"`
}

// LineAnnotation is a fixed horizontal reference line drawn over the
// data series, visually distinct from them.
type LineAnnotation struct {
	Y          float64 `json:"y"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
	BorderDash []int   `json:"borderDash,omitempty"`
}

// RunState mirrors the trigger control of the dashboard form: whether a
// run is in flight and the label the trigger should show.
type RunState struct {
	Busy  bool   `json:"busy"`
	Label string `json:"label"`
}
