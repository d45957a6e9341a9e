package pageload

import (
	"context"
	"strings"
)

// SelectorKind tells a Page how to interpret Selector.Value.
type SelectorKind int

const (
	// ByCSS is a CSS / attribute selector, e.g. `[placeholder="Add an item"]`.
	ByCSS SelectorKind = iota
	// ByText matches elements whose own text contains Value.
	ByText
)

type Selector struct {
	Kind  SelectorKind
	Value string
}

func CSS(v string) Selector  { return Selector{Kind: ByCSS, Value: v} }
func Text(v string) Selector { return Selector{Kind: ByText, Value: v} }

var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Placeholder selects an input by its placeholder text.
func Placeholder(text string) Selector {
	return CSS(`[placeholder="` + cssEscaper.Replace(text) + `"]`)
}

func (s Selector) String() string {
	if s.Kind == ByText {
		return "text=" + s.Value
	}
	return s.Value
}

// Page is a loaded document owned by the caller. Navigation and waiting for
// network quiescence happen before a Page is handed to a Verifier.
type Page interface {
	// WaitVisible blocks until the first element matching sel is visible or
	// ctx is done.
	WaitVisible(ctx context.Context, sel Selector) error
	// Visible reports whether the first match is visible right now.
	Visible(ctx context.Context, sel Selector) (bool, error)
	// Count returns the number of elements matching sel right now.
	Count(ctx context.Context, sel Selector) (int, error)
	// Screenshot writes a PNG of the viewport to path.
	Screenshot(ctx context.Context, path string) error
}
