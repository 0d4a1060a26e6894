package plot

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/firedash/firedash/core"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

// Trigger labels mirrored to the dashboard form button.
const (
	triggerLabelIdle = "Run Simulation"
	triggerLabelBusy = "Simulating..."
)

// Runner drives one simulation submission end to end. Implemented by
// the application orchestrator.
type Runner interface {
	Submit(ctx context.Context, request core.SimulationRequest) (*core.SimulationResult, error)
}

// Chart handles the visualization of simulation results
type Chart struct {
	sync.Mutex
	port          int
	debug         bool
	runner        Runner
	registry      *Registry
	renderer      *Renderer
	docs          map[string]*ChartDoc
	lastApplied   uint64
	lastResult    *core.SimulationResult
	state         RunState
	scriptContent string
	indexHTML     *template.Template
	lastUpdate    time.Time
	log           core.Logger
	wsManager     *WebSocketManager
}

// Option defines a function type for configuring a Chart instance
type Option func(*Chart)

// WithPort sets the HTTP server port
func WithPort(port int) Option {
	return func(chart *Chart) {
		chart.port = port
	}
}

// WithDebug enables debug mode (disables minification)
func WithDebug() Option {
	return func(chart *Chart) {
		chart.debug = true
	}
}

// WithRunner sets the orchestrator driving simulation submissions
func WithRunner(runner Runner) Option {
	return func(chart *Chart) {
		chart.runner = runner
	}
}

// NewChart creates a new chart instance with the provided options
func NewChart(log core.Logger, options ...Option) (*Chart, error) {
	registry := NewRegistry()
	chart := &Chart{
		port:     8080,
		log:      log,
		registry: registry,
		renderer: NewRenderer(registry, log),
		docs:     make(map[string]*ChartDoc),
		state:    RunState{Busy: false, Label: triggerLabelIdle},
	}

	// Apply all options
	for _, option := range options {
		option(chart)
	}

	// Parse chart HTML template
	var err error
	chart.indexHTML, err = template.ParseFS(staticFiles, "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	// Read and transpile chart JavaScript
	chartJS, err := staticFiles.ReadFile("assets/js/main.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read main.js: %w", err)
	}

	transpileChartJS := api.Transform(string(chartJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !chart.debug,
		MinifyIdentifiers: !chart.debug,
		MinifyWhitespace:  !chart.debug,
	})

	if len(transpileChartJS.Errors) > 0 {
		return nil, fmt.Errorf("chart script failed with: %v", transpileChartJS.Errors)
	}

	chart.scriptContent = string(transpileChartJS.Code)

	// Create WebSocket manager
	chart.wsManager = NewWebSocketManager(log, chart)

	return chart, nil
}

// SetRunner wires the orchestrator after construction. The chart and
// the orchestrator reference each other, so one side is set late.
func (c *Chart) SetRunner(runner Runner) {
	c.Lock()
	defer c.Unlock()
	c.runner = runner
}

// GetPort returns the configured port
func (c *Chart) GetPort() int {
	return c.port
}

// GetWSManager returns the WebSocket manager
func (c *Chart) GetWSManager() *WebSocketManager {
	return c.wsManager
}

// Renderer returns the chart renderer.
func (c *Chart) Renderer() *Renderer {
	return c.renderer
}

// Registry returns the chart instance registry.
func (c *Chart) Registry() *Registry {
	return c.registry
}

// BeginRun marks the trigger busy and relabels it for the run's
// duration. Connected clients are notified so their form mirrors it.
func (c *Chart) BeginRun(runID uint64) {
	c.Lock()
	c.state = RunState{Busy: true, Label: triggerLabelBusy}
	state := c.state
	c.Unlock()

	c.log.WithField("run_id", runID).Info("simulation run started")
	c.wsManager.BroadcastState("runStarted", state)
}

// FinishRun restores the trigger to its idle state. Called exactly
// once per submission regardless of outcome.
func (c *Chart) FinishRun(runID uint64) {
	c.Lock()
	c.state = RunState{Busy: false, Label: triggerLabelIdle}
	state := c.state
	c.Unlock()

	c.log.WithField("run_id", runID).Debug("simulation run finished")
	c.wsManager.BroadcastState("runFinished", state)
}

// ApplyResult renders the result into all four chart slots and pushes
// the refreshed documents to connected clients. A result carrying a
// run id older than the last applied one is discarded, so the final
// visible state always belongs to the newest submission.
func (c *Chart) ApplyResult(runID uint64, result *core.SimulationResult) error {
	c.Lock()
	if runID < c.lastApplied {
		c.Unlock()
		c.log.WithField("run_id", runID).Warn("discarding render for superseded run")
		return core.ErrStaleRun
	}

	docs := c.renderer.RenderResult(runID, result)
	for _, doc := range docs {
		c.docs[doc.Slot] = doc
	}
	c.lastApplied = runID
	c.lastResult = result
	c.lastUpdate = time.Now()
	c.Unlock()

	c.wsManager.BroadcastDocs(docs)
	return nil
}

// CurrentState returns the trigger state as seen by the dashboard.
func (c *Chart) CurrentState() RunState {
	c.Lock()
	defer c.Unlock()
	return c.state
}

// CurrentDocs returns the current chart documents in display order.
func (c *Chart) CurrentDocs() []*ChartDoc {
	c.Lock()
	defer c.Unlock()

	docs := make([]*ChartDoc, 0, len(c.docs))
	for _, slot := range Slots {
		if doc, ok := c.docs[slot]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// LastResult returns the most recently rendered simulation result.
func (c *Chart) LastResult() *core.SimulationResult {
	c.Lock()
	defer c.Unlock()
	return c.lastResult
}

// RegisterHandlers registers all necessary handlers on the HTTP server
func (c *Chart) RegisterHandlers(server HTTPServer) {
	// Register static file handler
	server.RegisterFileServer("/assets/", http.FS(staticFiles))

	// Register API handlers
	server.RegisterHandler("/health", c.handleHealth)
	server.RegisterHandler("/history", c.handleHistory)
	server.RegisterHandler("/api/run", c.handleRun)
	server.RegisterHandler("/api/charts", c.handleCharts)
	server.RegisterHandler("/ws", c.wsManager.HandleWebSocket)
	server.RegisterHandler("/", c.handleIndex)
}
