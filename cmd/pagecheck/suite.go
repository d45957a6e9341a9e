package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/config"
	"github.com/hamed0406/pagecheck/internal/pageload"
	"github.com/hamed0406/pagecheck/internal/probe"
)

func newSuiteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "suite <file.yaml>",
		Short: "Verify every page listed in a YAML suite",
		Long: `Verify every target of a suite file in order, sharing one browser.

  defaults:
    label: My List
    timeout: 10s
  targets:
    - url: http://localhost:3000/
    - name: staging
      url: https://staging.example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := config.LoadSuite(args[0])
			if err != nil {
				return err
			}
			log, err := g.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			opener, release, err := g.openBrowser(ctx, log)
			if err != nil {
				return err
			}
			defer release()

			return runSuite(ctx, cmd.OutOrStdout(), log, opener, g.pageOptions(), suite)
		},
	}
}

// runSuite verifies each target and combines the failures. Degraded pages
// pass. A cancelled ctx stops the run after the current target.
func runSuite(ctx context.Context, w io.Writer, log *zap.Logger, opener probe.Opener, base pageload.Options, suite *config.Suite) error {
	var errs error
	var passed, degraded, failed int
	for _, t := range suite.Targets {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		opts := base
		if t.Label != "" {
			opts.Label = t.Label
		}
		if t.Placeholder != "" {
			opts.InputSelector = pageload.Placeholder(t.Placeholder)
		}
		if t.Timeout > 0 {
			opts.Timeout = t.Timeout
		}

		rep, err := verifyURL(ctx, log, opener, opts, t.Name, t.URL)
		printReport(w, t.Name, rep)
		switch {
		case err != nil:
			failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", t.Name, err))
		case rep.Outcome == pageload.DegradedSuccess:
			degraded++
		default:
			passed++
		}
	}

	summary := color.New(color.Bold)
	summary.Fprintf(w, "\n%d passed, %d degraded, %d failed\n", passed, degraded, failed)
	return errs
}
