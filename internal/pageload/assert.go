package pageload

import "context"

// TB is the subset of testing.TB that AssertLoaded needs.
type TB interface {
	Helper()
	Name() string
	Logf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// AssertLoaded is the test-case entry point: it fails t on Failure and logs
// a warning on DegradedSuccess.
func AssertLoaded(t TB, ctx context.Context, v *Verifier, page Page) Report {
	t.Helper()
	rep, err := v.Verify(ctx, page, t.Name())
	if err != nil {
		if rep.Screenshot != "" {
			t.Fatalf("%v (screenshot: %s)", err, rep.Screenshot)
		} else {
			t.Fatalf("%v", err)
		}
		return rep
	}
	if rep.Outcome == DegradedSuccess {
		t.Logf("warning: %q not found; %s (screenshot: %s)", v.Opts.Label, rep.Message, rep.Screenshot)
		return rep
	}
	t.Logf("%s", rep.Message)
	return rep
}
