package plot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/firedash/firedash/core"

	"github.com/goccy/go-json"
)

// dashboardPayload is what the frontend needs to draw itself: trigger
// state plus the current chart documents.
type dashboardPayload struct {
	State  RunState    `json:"state"`
	Charts []*ChartDoc `json:"charts"`
}

// handleHealth handles health check requests
func (c *Chart) handleHealth(w http.ResponseWriter, _ *http.Request) {
	c.Lock()
	lastUpdate := c.lastUpdate
	c.Unlock()

	// Status only; the dashboard is healthy even before the first run.
	w.WriteHeader(http.StatusOK)
	if !lastUpdate.IsZero() {
		if _, err := w.Write([]byte(lastUpdate.Format(time.RFC3339))); err != nil {
			c.log.Error("Failed to write health status: ", err)
		}
	}
}

// handleIndex handles the main page request
func (c *Chart) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	state := c.CurrentState()

	w.Header().Set("Content-Type", "text/html")
	err := c.indexHTML.Execute(w, map[string]any{
		"triggerLabel": state.Label,
		"script":       c.scriptContent,
	})

	if err != nil {
		c.log.Error("Template execution failed: ", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleRun accepts the submitted form fields, drives a full
// simulation run through the orchestrator and answers with the
// refreshed dashboard payload. Failures are folded into a generic
// error the frontend surfaces as a blocking notification.
func (c *Chart) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c.Lock()
	runner := c.runner
	c.Unlock()
	if runner == nil {
		http.Error(w, "no simulation runner configured", http.StatusServiceUnavailable)
		return
	}

	var request core.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	_, err := runner.Submit(r.Context(), request)
	switch {
	case errors.Is(err, core.ErrStaleRun):
		// A newer submission already rendered; answer with its charts.
	case err != nil:
		c.log.WithError(err).Error("simulation run failed")
		c.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "simulation failed, please try again",
		})
		return
	}

	c.writeJSON(w, http.StatusOK, dashboardPayload{
		State:  c.CurrentState(),
		Charts: c.CurrentDocs(),
	})
}

// handleCharts returns the current chart documents and trigger state.
func (c *Chart) handleCharts(w http.ResponseWriter, _ *http.Request) {
	c.writeJSON(w, http.StatusOK, dashboardPayload{
		State:  c.CurrentState(),
		Charts: c.CurrentDocs(),
	})
}

// handleHistory handles CSV export of the latest ruin-rate series
func (c *Chart) handleHistory(w http.ResponseWriter, _ *http.Request) {
	result := c.LastResult()
	if result == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Set headers for CSV download
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename=ruin_rates.csv")

	// Create CSV in memory
	buffer := bytes.NewBuffer(nil)
	csvWriter := csv.NewWriter(buffer)

	if err := csvWriter.Write([]string{"age", "ruin_rate"}); err != nil {
		c.log.Error("Failed writing CSV header: ", err)
		http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	for _, point := range result.RuinRates {
		if err := csvWriter.Write([]string{
			strconv.Itoa(point.Age),
			fmt.Sprintf("%.2f", point.Rate),
		}); err != nil {
			c.log.Error("Failed writing CSV data: ", err)
			http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
			return
		}
	}
	csvWriter.Flush()

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buffer.Bytes()); err != nil {
		c.log.Error("Failed writing CSV response: ", err)
	}
}

func (c *Chart) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		c.log.Error("Failed to encode JSON response: ", err)
	}
}
