package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"

	"github.com/alvmarrod/fontscan/internal/browser"
	"github.com/alvmarrod/fontscan/internal/config"
	"github.com/alvmarrod/fontscan/internal/crawler"
	"github.com/alvmarrod/fontscan/internal/fonts"
	"github.com/alvmarrod/fontscan/internal/metrics"
	"github.com/alvmarrod/fontscan/internal/report"
	"github.com/alvmarrod/fontscan/internal/storage"
	"github.com/alvmarrod/fontscan/internal/version"
)

// Termination reasons written to the metrics file
const (
	reasonCompleted   = "completed"
	reasonInterrupted = "interrupted"
	reasonFailed      = "failed"
)

const progressInterval = 10 * time.Second

// loadConfig merges the config file, environment and command line flags
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("start-url") {
		cfg.StartURL = cmd.String("start-url")
	}
	if cmd.IsSet("max-depth") {
		cfg.MaxDepth = int(cmd.Int("max-depth"))
	}
	if cmd.IsSet("max-pages") {
		cfg.MaxPages = int(cmd.Int("max-pages"))
	}
	if cmd.IsSet("format") {
		cfg.Format = cmd.String("format")
	}
	if cmd.IsSet("db") {
		cfg.DBPath = cmd.String("db")
	}
	if cmd.IsSet("metrics") {
		cfg.MetricsPath = cmd.String("metrics")
	}
	if cmd.IsSet("chrome") {
		cfg.ChromePath = cmd.String("chrome")
	}
	if cmd.IsSet("headful") {
		cfg.Headful = cmd.Bool("headful")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command line: %w", err)
	}
	return cfg, nil
}

func runScan(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	logrus.Infof("fontscan v%s starting...", version.Version)
	logrus.Infof("Configuration loaded: start=%s, depth=%d, max_pages=%d",
		cfg.StartURL, cfg.MaxDepth, cfg.MaxPages)

	chromePath, err := browser.LocateChrome(cfg.ChromePath)
	if err != nil {
		return fmt.Errorf("cannot run without a browser: %w", err)
	}
	logrus.Infof("Using browser: %s", chromePath)

	filter, err := crawler.NewFilter(cfg.ExcludePatterns)
	if err != nil {
		return err
	}

	var store *storage.Storage
	if cfg.DBPath != "" {
		if store, err = storage.NewStorage(cfg.DBPath); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()
		logrus.Infof("Database initialized: %s", cfg.DBPath)
	}

	b, err := browser.Launch(browser.Options{
		ExecPath:  chromePath,
		Headful:   cfg.Headful,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logrus.Warnf("Browser did not shut down cleanly: %v", err)
		}
	}()

	open := func(ctx context.Context, pageURL string) (crawler.Page, error) {
		p, err := b.Open(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	tracker := metrics.NewTracker()
	c := crawler.NewCrawler(cfg,
		crawler.NewDiscoverer(cfg, filter, b.Anchors),
		open,
		crawler.NewStylesheetFetcher(cfg),
		tracker,
	)

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			logrus.Warn("Interrupt received, finishing current page (signal again to force quit)")
		case <-done:
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logrus.Info(tracker.LogProgress())
			case <-done:
				return
			}
		}
	}()

	rep, runErr := c.Run(ctx)
	close(done)
	wg.Wait()

	reason := terminationReason(rep, runErr)
	logrus.Info("Final stats: " + tracker.LogProgress())

	logrus.Info("Step 1/3: Writing report...")
	if rep != nil {
		if err := report.Write(cmd.Root().Writer, rep, cfg.Format); err != nil {
			runErr = err
		}
	}

	logrus.Info("Step 2/3: Exporting report to database...")
	if store != nil && rep != nil {
		runID, err := store.SaveReport(rep)
		if err != nil {
			logrus.Errorf("Failed to export report: %v", err)
		} else {
			logrus.Infof("Report saved as run %d in %s", runID, cfg.DBPath)
		}
	}

	logrus.Info("Step 3/3: Writing final metrics...")
	if cfg.MetricsPath != "" {
		if err := tracker.WriteToFile(cfg.MetricsPath, reason); err != nil {
			logrus.Errorf("Failed to write metrics: %v", err)
		} else {
			logrus.Infof("Metrics written to %s", cfg.MetricsPath)
		}
	}

	return runErr
}

func terminationReason(rep *fonts.Report, err error) string {
	switch {
	case err != nil || rep == nil:
		return reasonFailed
	case rep.Stats.Interrupted:
		return reasonInterrupted
	default:
		return reasonCompleted
	}
}
