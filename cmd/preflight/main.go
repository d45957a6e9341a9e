// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/hamed0406/pagecheck/internal/config"
)

type level int

const (
	levelOK level = iota
	levelWarn
	levelFail
)

type finding struct {
	level level
	msg   string
}

func main() {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	failed := false
	for _, f := range preflight(config.FromEnv(), os.Getenv) {
		switch f.level {
		case levelFail:
			failed = true
			red.Fprintln(os.Stderr, "✖", f.msg)
		case levelWarn:
			yellow.Fprintln(os.Stderr, "⚠", f.msg)
		default:
			green.Println("✔", f.msg)
		}
	}
	if failed {
		os.Exit(1)
	}
	green.Println("✔ preflight passed")
}

// preflight checks cfg as the API server would use it. getenv reads the raw
// values behind cfg.
func preflight(cfg config.Config, getenv func(string) string) []finding {
	var out []finding
	ok := func(msg string) { out = append(out, finding{levelOK, msg}) }
	warn := func(msg string) { out = append(out, finding{levelWarn, msg}) }
	fail := func(msg string) { out = append(out, finding{levelFail, msg}) }

	if len(cfg.AdminAPIKeys) == 0 {
		fail("ADMIN_API_KEYS is empty (admin routes will be open).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty; only admin keys can read.")
	}
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS"} {
		if strings.Contains(getenv(name), " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if getenv("API_ADDR") == "" {
		warn("API_ADDR is empty; default " + cfg.Addr + " will be used.")
	} else {
		ok("API_ADDR=" + cfg.Addr)
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; API will use the in-memory store.")
	} else {
		ok("DATABASE_URL present")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.BrowserWSURL != "" {
		u, err := url.Parse(cfg.BrowserWSURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			fail("BROWSER_WS_URL must be a ws:// or wss:// DevTools URL.")
		} else {
			ok("BROWSER_WS_URL=" + cfg.BrowserWSURL)
		}
	} else {
		ok(fmt.Sprintf("launching local Chrome (headless=%t)", cfg.Headless))
	}

	if cfg.ScreenshotDir == "" {
		warn("SCREENSHOT_DIR empty; diagnostic screenshots are disabled.")
	} else if err := writable(cfg.ScreenshotDir); err != nil {
		fail("SCREENSHOT_DIR " + cfg.ScreenshotDir + " is not writable: " + err.Error())
	} else {
		ok("SCREENSHOT_DIR=" + cfg.ScreenshotDir)
	}

	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty; alerts will only be logged.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	if cfg.CheckInterval == 0 {
		warn("CHECK_INTERVAL_MS=0; periodic rechecks are disabled.")
	}
	return out
}

// writable creates dir if needed and probes it with a temp file.
func writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
