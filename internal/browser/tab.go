package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/hamed0406/pagecheck/internal/pageload"
)

// Tab is one browser tab showing a loaded document.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
}

var _ pageload.Page = (*Tab)(nil)

func (t *Tab) URL() string { return t.url }

func (t *Tab) Close() { t.cancel() }

func (t *Tab) navigate(ctx context.Context) error {
	idle := make(chan struct{})
	lctx, lcancel := context.WithCancel(t.ctx)
	defer lcancel()

	// the first "init" after we start listening belongs to our navigation;
	// later inits come from child frames
	var main cdp.LoaderID
	chromedp.ListenTarget(lctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch {
		case e.Name == "init" && main == "":
			main = e.LoaderID
		case e.Name == "networkIdle" && main != "" && e.LoaderID == main:
			select {
			case <-idle:
			default:
				close(idle)
			}
		}
	})

	err := t.run(ctx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(t.url),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrNotIdle, ctx.Err())
	}
}

// run executes actions on the tab, bounded by ctx as well as the tab's own
// lifetime.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		rctx, dcancel = context.WithDeadline(rctx, dl)
		defer dcancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(rctx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (t *Tab) WaitVisible(ctx context.Context, sel pageload.Selector) error {
	if sel.Kind == pageload.ByText {
		return t.run(ctx, chromedp.WaitVisible(textXPath(sel.Value), chromedp.BySearch))
	}
	return t.run(ctx, chromedp.WaitVisible(sel.Value, chromedp.ByQuery))
}

func (t *Tab) Visible(ctx context.Context, sel pageload.Selector) (bool, error) {
	var ok bool
	if err := t.run(ctx, chromedp.Evaluate(visibleJS(sel), &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

func (t *Tab) Count(ctx context.Context, sel pageload.Selector) (int, error) {
	var n int
	if err := t.run(ctx, chromedp.Evaluate(countJS(sel), &n)); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *Tab) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := t.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

const (
	upperASCII = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerASCII = "abcdefghijklmnopqrstuvwxyz"
)

// textMatch is an XPath predicate on an element's text content: whitespace
// is collapsed and ASCII letters compare case-insensitively.
func textMatch(s string) string {
	want := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, strings.Join(strings.Fields(s), " "))
	return "contains(translate(normalize-space(.), '" + upperASCII + "', '" + lowerASCII + "'), " +
		xpathLiteral(want) + ")"
}

// textNodes selects the innermost body elements whose text matches s, so
// <h2>My <b>List</b></h2> yields the h2 and not its ancestors.
func textNodes(s string) string {
	m := textMatch(s)
	return "//body/descendant-or-self::*[not(self::script or self::style)][" + m + "][not(*[" + m + "])]"
}

func textXPath(s string) string { return "(" + textNodes(s) + ")[1]" }

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// firstJS evaluates to the first matching element or null.
func firstJS(sel pageload.Selector) string {
	if sel.Kind == pageload.ByText {
		return "document.evaluate(" + jsString(textXPath(sel.Value)) +
			", document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue"
	}
	return "document.querySelector(" + jsString(sel.Value) + ")"
}

func visibleJS(sel pageload.Selector) string {
	return `(() => {
  const el = ` + firstJS(sel) + `;
  if (!el) return false;
  const st = window.getComputedStyle(el);
  if (st.visibility === "hidden" || st.display === "none") return false;
  const r = el.getBoundingClientRect();
  return r.width > 0 && r.height > 0;
})()`
}

func countJS(sel pageload.Selector) string {
	if sel.Kind == pageload.ByText {
		x := "count(" + textNodes(sel.Value) + ")"
		return "document.evaluate(" + jsString(x) + ", document, null, XPathResult.NUMBER_TYPE, null).numberValue"
	}
	return "document.querySelectorAll(" + jsString(sel.Value) + ").length"
}
