package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/pageload"
	"github.com/hamed0406/pagecheck/internal/probe"
)

func newVerifyCommand(g *globals) *cobra.Command {
	var (
		label       string
		placeholder string
		timeout     time.Duration
		shots       string
	)
	cmd := &cobra.Command{
		Use:   "verify <url>",
		Short: "Verify a single page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			opts := g.pageOptions()
			opts.Label = label
			opts.InputSelector = pageload.Placeholder(placeholder)
			opts.Timeout = timeout
			opts.ScreenshotDir = shots

			rep, err := verifyURL(ctx, log, opener, opts, args[0], args[0])
			printReport(cmd.OutOrStdout(), args[0], rep)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&label, "label", g.cfg.PrimaryLabel, "text whose visibility means the app loaded")
	f.StringVar(&placeholder, "placeholder", g.cfg.InputPlaceholder, "placeholder of the fallback input")
	f.DurationVar(&timeout, "timeout", g.cfg.CheckTimeout, "how long to wait for the label")
	f.StringVar(&shots, "screenshot-dir", g.cfg.ScreenshotDir, `where diagnostic screenshots go ("" disables)`)
	return cmd
}

func (g *globals) pageOptions() pageload.Options {
	opts := pageload.DefaultOptions()
	opts.Label = g.cfg.PrimaryLabel
	opts.InputSelector = pageload.Placeholder(g.cfg.InputPlaceholder)
	opts.RootTimeout = g.cfg.RootTimeout
	opts.Timeout = g.cfg.CheckTimeout
	opts.ScreenshotDir = g.cfg.ScreenshotDir
	return opts
}

// verifyURL opens url and classifies it. Open failures are reported as
// Failure with the open error.
func verifyURL(ctx context.Context, log *zap.Logger, opener probe.Opener, opts pageload.Options, name, url string) (pageload.Report, error) {
	start := time.Now()
	tab, err := opener.Open(ctx, url)
	if err != nil {
		log.Error("page_open_error", zap.String("url", url), zap.Error(err))
		return pageload.Report{
			Outcome: pageload.Failure,
			Message: err.Error(),
			Elapsed: time.Since(start),
		}, err
	}
	defer tab.Close()
	return pageload.New(log, opts).Verify(ctx, tab, name)
}

func printReport(w io.Writer, name string, rep pageload.Report) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	switch rep.Outcome {
	case pageload.Success:
		green.Fprintf(w, "✔ %s", name)
	case pageload.DegradedSuccess:
		yellow.Fprintf(w, "⚠ %s", name)
	default:
		red.Fprintf(w, "✖ %s", name)
	}
	fmt.Fprintf(w, "  %s (%s)\n", rep.Message, rep.Elapsed.Round(time.Millisecond))
	if rep.Screenshot != "" {
		fmt.Fprintf(w, "    screenshot: %s\n", rep.Screenshot)
	}
}
