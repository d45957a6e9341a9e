package probe

import (
	"context"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// GatedChecker runs Main only when Gate passes, so an unreachable server
// fails fast without a browser round trip.
type GatedChecker struct {
	Gate Checker
	Main Checker
}

func (g *GatedChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	pre := g.Gate.Check(ctx, target)
	if !pre.Up() {
		pre.Message = "unreachable: " + pre.Message
		return pre
	}
	out := g.Main.Check(ctx, target)
	out.LatencyMS += pre.LatencyMS
	if out.StatusCode == 0 {
		out.StatusCode = pre.StatusCode
	}
	return out
}
