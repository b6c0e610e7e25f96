package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"

	"github.com/alvmarrod/fontscan/internal/report"
	"github.com/alvmarrod/fontscan/internal/version"
)

func main() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// first signal cancels ctx and lets the scan finish the current page,
	// the second one terminates the process
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := newApp().Run(ctx, os.Args); err != nil {
		stop()
		logrus.Errorf("fontscan failed: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            "fontscan",
		Usage:           "find web fonts a site loads but never renders",
		Version:         version.Version,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (JSON)"},
			&cli.StringFlag{Name: "log-level", Usage: "override log `LEVEL` (debug, info, warn, error)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Crawls the site and reconciles rendered fonts against declared fonts",
				Action: runScan,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "start-url", Usage: "crawl start `URL` (overrides $WP_HOME and config)"},
					&cli.IntFlag{Name: "max-depth", Usage: "link discovery depth, 1 = start page only"},
					&cli.IntFlag{Name: "max-pages", Usage: "stop after `N` analyzed pages, 0 = unlimited"},
					&cli.StringFlag{Name: "format", Usage: "report `FORMAT` (" + report.FormatText + ", " + report.FormatJSON + ")"},
					&cli.StringFlag{Name: "db", Usage: "export the report to sqlite database `FILE`"},
					&cli.StringFlag{Name: "metrics", Usage: "write crawl metrics to JSON `FILE`"},
					&cli.StringFlag{Name: "chrome", Usage: "Chrome or Chromium executable `PATH`"},
					&cli.BoolFlag{Name: "headful", Usage: "show the browser window"},
				},
			},
			{
				Name:  "version",
				Usage: "Prints the program version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(cmd.Root().Writer, "fontscan %s\n", version.Version)
					return err
				},
			},
		},
	}
}
