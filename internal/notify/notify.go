package notify

import (
	"context"

	"go.uber.org/multierr"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans out to every notifier and combines their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Nop drops every message. Used when no channel is configured.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }
