// Command pagecheck verifies that a to-do web app page loaded.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/pagecheck/internal/browser"
	"github.com/hamed0406/pagecheck/internal/config"
	"github.com/hamed0406/pagecheck/internal/logging"
	"github.com/hamed0406/pagecheck/internal/probe"
)

// Version is injected at build time via -ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(config.FromEnv()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	cfg     config.Config
	verbose bool
}

func newRootCommand(cfg config.Config) *cobra.Command {
	g := &globals{cfg: cfg}
	cmd := &cobra.Command{
		Use:   "pagecheck",
		Short: "Smoke-check that a to-do web app page loaded",
		Long: `pagecheck opens pages in a headless Chrome, waits for the network to go
idle and classifies each one as success, degraded or failure.

Exit code: 0 when every page passed (success or degraded), 1 otherwise.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&g.cfg.LogDir, "log-dir", cfg.LogDir, "directory for the rotated JSON log")
	f.StringVar(&g.cfg.BrowserWSURL, "remote", cfg.BrowserWSURL, "DevTools websocket URL of a running Chrome")
	f.BoolVar(&g.cfg.Headless, "headless", cfg.Headless, "run the launched Chrome headless")
	f.DurationVar(&g.cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "navigation and network idle budget")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "debug output on stderr")

	cmd.AddCommand(newVerifyCommand(g))
	cmd.AddCommand(newSuiteCommand(g))
	cmd.AddCommand(newAddCommand(g))
	return cmd
}

func (g *globals) logger() (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if g.verbose {
		level = zapcore.DebugLevel
	}
	return logging.NewCLILogger(g.cfg.LogDir, level)
}

// openBrowser starts Chrome and returns an Opener plus its release func.
func (g *globals) openBrowser(ctx context.Context, log *zap.Logger) (probe.Opener, func(), error) {
	b, err := browser.New(ctx, log, browser.Options{
		RemoteURL:   g.cfg.BrowserWSURL,
		Headless:    g.cfg.Headless,
		IdleTimeout: g.cfg.IdleTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return probe.BrowserOpener{Browser: b}, b.Close, nil
}
