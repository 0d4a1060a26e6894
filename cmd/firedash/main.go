package main

import (
	"fmt"
	"os"
	"time"

	"github.com/firedash/firedash"
	"github.com/firedash/firedash/config"
	"github.com/firedash/firedash/core"
	"github.com/firedash/firedash/engine"
	"github.com/firedash/firedash/notification"
	"github.com/firedash/firedash/plot"
	"github.com/firedash/firedash/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	// run command flags
	currentAge           string
	lifeExpectancy       string
	currentAssets        string
	annualIncome         string
	annualExpense        string
	postRetirementIncome string
	simulations          string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "firedash",
		Short:   "FIRE simulation dashboard",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildServeCmd())
	rootCmd.AddCommand(buildRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation dashboard",
		RunE:  runServe,
	}
}

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print a terminal report",
		RunE:  runOnce,
	}

	runCmd.Flags().StringVar(&currentAge, "current-age", "25", "Current age")
	runCmd.Flags().StringVar(&lifeExpectancy, "life-expectancy", "90", "Life expectancy")
	runCmd.Flags().StringVar(&currentAssets, "current-assets", "100", "Current assets")
	runCmd.Flags().StringVar(&annualIncome, "annual-income", "56", "Annual income")
	runCmd.Flags().StringVar(&annualExpense, "annual-expense", "12", "Annual expense")
	runCmd.Flags().StringVar(&postRetirementIncome, "post-retirement-income", "0", "Post-retirement income")
	runCmd.Flags().StringVar(&simulations, "simulations", "1000", "Number of simulated paths")

	return runCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := firedash.DefaultLog

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := engine.NewClient(cfg.Engine.BaseURL, log,
		engine.WithTimeout(cfg.Engine.Timeout),
		engine.WithAttempts(cfg.Engine.Attempts),
	)

	chartOptions := []plot.Option{plot.WithPort(cfg.Port)}
	if cfg.Debug {
		chartOptions = append(chartOptions, plot.WithDebug())
	}

	chart, err := plot.NewChart(log, chartOptions...)
	if err != nil {
		return err
	}

	appOptions := []firedash.Option{}

	store, err := buildStorage(cfg.Storage)
	if err != nil {
		return err
	}
	appOptions = append(appOptions, firedash.WithStorage(store))

	var telegram core.NotifierWithStart
	if cfg.Telegram.Enabled {
		telegram, err = notification.NewTelegram(notification.Settings{
			Token: cfg.Telegram.Token,
			Users: cfg.Telegram.Users,
		}, chart, log)
		if err != nil {
			return err
		}
		appOptions = append(appOptions, firedash.WithNotifier(telegram))
	}

	app := firedash.NewApp(client, chart, log, appOptions...)

	if err := app.Restore(cmd.Context()); err != nil {
		log.WithError(err).Warn("could not restore previous snapshot")
	}

	if telegram != nil {
		telegram.Start()
	}

	return plot.NewChartServer(chart, plot.NewStandardHTTPServer(), log).Start()
}

func runOnce(cmd *cobra.Command, _ []string) error {
	log := firedash.DefaultLog

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := engine.NewClient(cfg.Engine.BaseURL, log,
		engine.WithTimeout(cfg.Engine.Timeout),
		engine.WithAttempts(cfg.Engine.Attempts),
	)

	request := core.SimulationRequest{
		CurrentAge:           currentAge,
		LifeExpectancy:       lifeExpectancy,
		CurrentAssets:        currentAssets,
		AnnualIncome:         annualIncome,
		AnnualExpense:        annualExpense,
		PostRetirementIncome: postRetirementIncome,
		Simulations:          simulations,
	}

	spinner := progressbar.Default(-1, "simulating")
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				_ = spinner.Add(1)
			}
		}
	}()

	result, err := client.Simulate(cmd.Context(), request)
	close(done)
	_ = spinner.Finish()
	fmt.Println()

	if err != nil {
		return err
	}

	firedash.Summary(result, os.Stdout)
	return nil
}

func buildStorage(cfg config.StorageConfig) (core.SnapshotStore, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		return storage.NewFromSQLite(cfg.Path, storage.DefaultConfig())
	case config.StorageBunt:
		return storage.NewFromFile(cfg.Path)
	case config.StorageMemory:
		return storage.NewFromMemory()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
