// Package notification provides implementations for various notification services
package notification

import (
	"fmt"
	"slices"
	"time"

	"github.com/firedash/firedash/core"
	"github.com/firedash/firedash/metric"
	"github.com/firedash/firedash/plot"

	tb "gopkg.in/tucnak/telebot.v2"
)

const pollingTimeout = 10 * time.Second

// Settings configures the Telegram notifier.
type Settings struct {
	Token string
	Users []int
}

// Telegram implements the core.NotifierWithStart interface. It pushes
// run outcomes to the configured users and answers /status queries.
type Telegram struct {
	settings Settings
	chart    *plot.Chart
	client   *tb.Bot
	log      core.Logger
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(settings Settings, chart *plot.Chart, log core.Logger) (core.NotifierWithStart, error) {
	poller := &tb.LongPoller{Timeout: pollingTimeout}
	userMiddleware := newAuthMiddleware(poller, settings, log)

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	if err := client.SetCommands([]tb.Command{
		{Text: "/status", Description: "Latest simulation outcome"},
		{Text: "/help", Description: "Display help instructions"},
	}); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings: settings,
		chart:    chart,
		client:   client,
		log:      log,
	}

	client.Handle("/status", bot.StatusHandle)
	client.Handle("/help", bot.HelpHandle)

	return bot, nil
}

// newAuthMiddleware creates a middleware to validate authorized users
func newAuthMiddleware(poller *tb.LongPoller, settings Settings, log core.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if slices.Contains(settings.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// Start begins the Telegram bot and notifies all authorized users
func (t *Telegram) Start() {
	go t.client.Start()
	t.Notify("Dashboard notifier initialized.")
}

// Notify sends a message to all authorized users
func (t *Telegram) Notify(text string) {
	for _, user := range t.settings.Users {
		if _, err := t.client.Send(&tb.User{ID: int64(user)}, text); err != nil {
			t.log.WithError(err).Error("failed to send notification")
		}
	}
}

// OnResult notifies a completed run with its headline numbers.
func (t *Telegram) OnResult(result *core.SimulationResult) {
	t.Notify(resultSummary(result))
}

// OnError notifies a failed run.
func (t *Telegram) OnError(err error) {
	t.Notify(fmt.Sprintf("⚠ Simulation run failed: `%v`", err))
}

// StatusHandle answers with the latest rendered outcome.
func (t *Telegram) StatusHandle(m *tb.Message) {
	result := t.chart.LastResult()
	if result == nil {
		t.send(m.Sender, "No simulation has completed yet.")
		return
	}
	t.send(m.Sender, resultSummary(result))
}

// HelpHandle lists the available commands.
func (t *Telegram) HelpHandle(m *tb.Message) {
	t.send(m.Sender, "Commands:\n/status - latest simulation outcome\n/help - this message")
}

func (t *Telegram) send(to *tb.User, text string) {
	if _, err := t.client.Send(to, text); err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// resultSummary formats the headline numbers of a simulation result.
func resultSummary(result *core.SimulationResult) string {
	rates := make([]float64, len(result.RuinRates))
	for i, point := range result.RuinRates {
		rates[i] = point.Rate
	}

	idx, minRate := metric.Min(rates)
	summary := fmt.Sprintf("Simulation complete. Lowest ruin probability: %.1f%% at age %d.",
		minRate, result.RuinRates[idx].Age)

	if recommended := result.Projections.Recommended; recommended != nil {
		summary += fmt.Sprintf(" Recommended retirement age: %d.", recommended.RetireAge)
	}

	return summary
}
