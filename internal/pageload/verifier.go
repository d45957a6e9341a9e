package pageload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotRendered means the document never showed a visible root element.
	ErrNotRendered = errors.New("page did not render a visible root element")
	// ErrDidNotLoad means neither the primary label nor any structural
	// fallback signal was found.
	ErrDidNotLoad = errors.New("page did not load correctly - no app elements found")
)

type Outcome int

const (
	Failure Outcome = iota
	DegradedSuccess
	Success
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case DegradedSuccess:
		return "degraded"
	default:
		return "failure"
	}
}

// Passed is true for Success and DegradedSuccess.
func (o Outcome) Passed() bool { return o != Failure }

type Options struct {
	Root             Selector      // must be visible before anything else
	Label            string        // primary indicator text
	InputSelector    Selector      // fallback (a)
	ContainerElement Selector      // fallback (b), counted
	RootTimeout      time.Duration // bound on the root wait
	Timeout          time.Duration // bound on the label wait
	ScreenshotDir    string        // "" disables screenshots
}

func DefaultOptions() Options {
	return Options{
		Root:             CSS("body"),
		Label:            "My List",
		InputSelector:    Placeholder("Add an item"),
		ContainerElement: CSS("div"),
		RootTimeout:      5 * time.Second,
		Timeout:          10 * time.Second,
		ScreenshotDir:    ".",
	}
}

// Report is the outcome of one verification.
type Report struct {
	Outcome      Outcome
	Message      string
	Screenshot   string // empty unless one was written
	HasInput     bool
	HasStructure bool
	Elapsed      time.Duration
}

// Verifier holds no per-call state; one value can serve concurrent checks.
type Verifier struct {
	Logger *zap.Logger
	Opts   Options
}

func New(logger *zap.Logger, opts Options) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.Root.Value == "" {
		opts.Root = def.Root
	}
	if opts.Label == "" {
		opts.Label = def.Label
	}
	if opts.InputSelector.Value == "" {
		opts.InputSelector = def.InputSelector
	}
	if opts.ContainerElement.Value == "" {
		opts.ContainerElement = def.ContainerElement
	}
	if opts.RootTimeout <= 0 {
		opts.RootTimeout = def.RootTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &Verifier{Logger: logger, Opts: opts}
}

// Verify classifies page. name labels the log lines and seeds the screenshot
// file name. A non-nil error is returned exactly when the outcome is Failure.
func (v *Verifier) Verify(ctx context.Context, page Page, name string) (Report, error) {
	start := time.Now()
	log := v.Logger.With(zap.String("check", name))
	rep := Report{}

	fail := func(err error) (Report, error) {
		rep.Outcome = Failure
		rep.Message = err.Error()
		rep.Elapsed = time.Since(start)
		log.Error("page_failed", zap.Error(err), zap.String("screenshot", rep.Screenshot))
		return rep, err
	}

	rctx, cancel := context.WithTimeout(ctx, v.Opts.RootTimeout)
	err := page.WaitVisible(rctx, v.Opts.Root)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return fail(fmt.Errorf("wait for %s: %w", v.Opts.Root, ctx.Err()))
		}
		return fail(fmt.Errorf("%w: %s: %v", ErrNotRendered, v.Opts.Root, err))
	}

	lctx, cancel := context.WithTimeout(ctx, v.Opts.Timeout)
	err = page.WaitVisible(lctx, Text(v.Opts.Label))
	cancel()
	if err == nil {
		rep.Outcome = Success
		rep.Message = fmt.Sprintf("found %q - app loaded successfully", v.Opts.Label)
		rep.Elapsed = time.Since(start)
		log.Info("page_loaded", zap.String("label", v.Opts.Label), zap.Duration("elapsed", rep.Elapsed))
		return rep, nil
	}
	if ctx.Err() != nil {
		return fail(fmt.Errorf("wait for %q: %w", v.Opts.Label, ctx.Err()))
	}
	log.Warn("page_label_missing", zap.String("label", v.Opts.Label), zap.NamedError("cause", err))

	rep.Screenshot = v.screenshot(ctx, log, page, name)
	rep.HasInput = v.visible(ctx, page, v.Opts.InputSelector)
	rep.HasStructure = v.count(ctx, page, v.Opts.ContainerElement) > 0

	if !rep.HasInput && !rep.HasStructure {
		return fail(ErrDidNotLoad)
	}

	rep.Outcome = DegradedSuccess
	rep.Message = "page structure loaded but API may not be working"
	rep.Elapsed = time.Since(start)
	log.Warn("page_degraded",
		zap.String("label", v.Opts.Label),
		zap.Bool("has_input", rep.HasInput),
		zap.Bool("has_structure", rep.HasStructure),
		zap.String("screenshot", rep.Screenshot),
	)
	return rep, nil
}

// screenshot is best effort and returns "" when nothing was written.
func (v *Verifier) screenshot(ctx context.Context, log *zap.Logger, page Page, name string) string {
	if v.Opts.ScreenshotDir == "" {
		return ""
	}
	if err := os.MkdirAll(v.Opts.ScreenshotDir, 0o755); err != nil {
		log.Warn("page_screenshot_failed", zap.Error(err))
		return ""
	}
	path := ScreenshotPath(v.Opts.ScreenshotDir, name)
	if err := page.Screenshot(ctx, path); err != nil {
		log.Warn("page_screenshot_failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

// visible collapses query errors to false.
func (v *Verifier) visible(ctx context.Context, page Page, sel Selector) bool {
	ok, err := page.Visible(ctx, sel)
	return err == nil && ok
}

// count collapses query errors to zero.
func (v *Verifier) count(ctx context.Context, page Page, sel Selector) int {
	n, err := page.Count(ctx, sel)
	if err != nil {
		return 0
	}
	return n
}

// ScreenshotPath returns a unique PNG path under dir derived from name.
func ScreenshotPath(dir, name string) string {
	return filepath.Join(dir, sanitize(name)+"-"+uuid.NewString()+".png")
}

func sanitize(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "._")
	if s == "" {
		return "page"
	}
	return s
}
