package probe

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/browser"
	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/pageload"
)

// Tab is a loaded page the checker closes when done.
type Tab interface {
	pageload.Page
	Close()
}

// Opener navigates to a URL and waits for network quiescence.
type Opener interface {
	Open(ctx context.Context, url string) (Tab, error)
}

// BrowserOpener adapts *browser.Browser to Opener.
type BrowserOpener struct {
	Browser *browser.Browser
}

func (o BrowserOpener) Open(ctx context.Context, url string) (Tab, error) {
	t, err := o.Browser.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// PageChecker loads the target in a browser tab and classifies it with
// pageload.Verifier.
type PageChecker struct {
	Logger *zap.Logger
	Opener Opener
	Opts   pageload.Options
}

func NewPageChecker(logger *zap.Logger, opener Opener, opts pageload.Options) *PageChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageChecker{Logger: logger, Opener: opener, Opts: opts}
}

func (p *PageChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	start := time.Now()
	tab, err := p.Opener.Open(ctx, target.URL)
	if err != nil {
		p.Logger.Warn("page_open_error", zap.String("url", target.URL), zap.Error(err))
		return failed("Page", err.Error(), time.Since(start).Seconds()*1000)
	}
	defer tab.Close()

	opts := p.Opts
	if target.Label != "" {
		opts.Label = target.Label
	}
	if target.Placeholder != "" {
		opts.InputSelector = pageload.Placeholder(target.Placeholder)
	}
	name := string(target.ID)
	if name == "" {
		name = target.URL
	}

	rep, _ := pageload.New(p.Logger, opts).Verify(ctx, tab, name)
	return CheckResult{
		Name:       "Page",
		Outcome:    domain.Outcome(rep.Outcome.String()),
		Message:    rep.Message,
		Screenshot: rep.Screenshot,
		LatencyMS:  time.Since(start).Seconds() * 1000,
	}
}
