// Package browser drives a Chrome instance over the DevTools protocol and
// exposes loaded tabs as pageload.Page values.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

type Options struct {
	RemoteURL   string        // ws:// DevTools URL; empty launches a local Chrome
	Headless    bool          // ignored for remote browsers
	IdleTimeout time.Duration // navigate + network idle budget
	Width       int
	Height      int
}

type Browser struct {
	log         *zap.Logger
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// New starts (or attaches to) a browser. Close releases it.
func New(ctx context.Context, log *zap.Logger, opts Options) (*Browser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Second
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 800
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.WindowSize(opts.Width, opts.Height),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	}

	sugar := log.Sugar()
	bctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(sugar.Debugf))
	// first Run launches the browser
	if err := chromedp.Run(bctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	log.Info("browser_started", zap.Bool("remote", opts.RemoteURL != ""), zap.Bool("headless", opts.Headless))
	return &Browser{log: log, opts: opts, ctx: bctx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (b *Browser) Close() {
	b.cancel()
	b.allocCancel()
	b.log.Info("browser_closed")
}

// Open creates a tab, navigates to url and waits until the network has been
// idle. The caller owns the returned Tab and must Close it.
func (b *Browser) Open(ctx context.Context, url string) (*Tab, error) {
	tctx, cancel := chromedp.NewContext(b.ctx)
	t := &Tab{ctx: tctx, cancel: cancel, url: url}
	// allocate the target on its own context so a caller timeout can't close it
	if err := chromedp.Run(tctx); err != nil {
		cancel()
		return nil, fmt.Errorf("new tab: %w", err)
	}

	nctx, ncancel := context.WithTimeout(ctx, b.opts.IdleTimeout)
	defer ncancel()
	if err := t.navigate(nctx); err != nil {
		t.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	b.log.Debug("tab_opened", zap.String("url", url))
	return t, nil
}

var (
	ErrNavigation = errors.New("navigation failed")
	ErrNotIdle    = errors.New("network did not become idle")
)
