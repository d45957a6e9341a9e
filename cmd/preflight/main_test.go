package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamed0406/pagecheck/internal/config"
)

func noEnv(string) string { return "" }

func messages(fs []finding, lvl level) []string {
	var out []string
	for _, f := range fs {
		if f.level == lvl {
			out = append(out, f.msg)
		}
	}
	return out
}

func hasPrefix(msgs []string, prefix string) bool {
	for _, m := range msgs {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func TestPreflight_EmptyOriginsWarnsAllowAll(t *testing.T) {
	cfg := config.Config{AdminAPIKeys: []string{"adm"}, ScreenshotDir: t.TempDir()}
	warns := messages(preflight(cfg, noEnv), levelWarn)
	assert.Contains(t, warns, "ALLOWED_ORIGINS empty; CORS allows every origin.")
}

func TestPreflight_Findings(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.Config
		level  level
		prefix string
	}{
		{"open admin routes", config.Config{}, levelFail, "ADMIN_API_KEYS is empty"},
		{"origins listed", config.Config{AllowedOrigins: []string{"https://a.example"}}, levelOK, "ALLOWED_ORIGINS=https://a.example"},
		{"bad browser url", config.Config{BrowserWSURL: "http://chrome:9222"}, levelFail, "BROWSER_WS_URL must be"},
		{"remote browser", config.Config{BrowserWSURL: "ws://chrome:9222/devtools/browser/x"}, levelOK, "BROWSER_WS_URL="},
		{"screenshots disabled", config.Config{}, levelWarn, "SCREENSHOT_DIR empty"},
		{"rechecks disabled", config.Config{}, levelWarn, "CHECK_INTERVAL_MS=0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			msgs := messages(preflight(c.cfg, noEnv), c.level)
			assert.True(t, hasPrefix(msgs, c.prefix), "want %q among %v", c.prefix, msgs)
		})
	}
}

func TestPreflight_ScreenshotDirWritable(t *testing.T) {
	dir := t.TempDir()
	oks := messages(preflight(config.Config{ScreenshotDir: dir}, noEnv), levelOK)
	assert.Contains(t, oks, "SCREENSHOT_DIR="+dir)
}
