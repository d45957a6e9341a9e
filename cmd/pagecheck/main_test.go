package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/config"
	"github.com/hamed0406/pagecheck/internal/pageload"
	"github.com/hamed0406/pagecheck/internal/probe"
)

// page renders a fixed set of visible selectors.
type page struct {
	visible map[string]bool
	closed  bool
}

func (p *page) WaitVisible(ctx context.Context, sel pageload.Selector) error {
	if p.visible[sel.String()] {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *page) Visible(_ context.Context, sel pageload.Selector) (bool, error) {
	return p.visible[sel.String()], nil
}

func (p *page) Count(_ context.Context, sel pageload.Selector) (int, error) {
	if p.visible[sel.String()] {
		return 1, nil
	}
	return 0, nil
}

func (p *page) Screenshot(_ context.Context, path string) error {
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (p *page) Close() { p.closed = true }

type opener struct {
	pages map[string]*page
}

func (o *opener) Open(_ context.Context, url string) (probe.Tab, error) {
	p, ok := o.pages[url]
	if !ok {
		return nil, errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	return p, nil
}

func fastOptions(t *testing.T) pageload.Options {
	opts := pageload.DefaultOptions()
	opts.RootTimeout = 50 * time.Millisecond
	opts.Timeout = 50 * time.Millisecond
	opts.ScreenshotDir = t.TempDir()
	return opts
}

func TestRunSuite_MixedOutcomes(t *testing.T) {
	ok := &page{visible: map[string]bool{"body": true, "text=My List": true}}
	degraded := &page{visible: map[string]bool{"body": true, "div": true}}
	empty := &page{visible: map[string]bool{"body": true}}
	o := &opener{pages: map[string]*page{"http://ok": ok, "http://degraded": degraded, "http://empty": empty}}

	suite := &config.Suite{Targets: []config.SuiteTarget{
		{Name: "ok", URL: "http://ok"},
		{Name: "degraded", URL: "http://degraded"},
		{Name: "empty", URL: "http://empty"},
		{Name: "gone", URL: "http://gone"},
	}}

	var out bytes.Buffer
	err := runSuite(context.Background(), &out, zap.NewNop(), o, fastOptions(t), suite)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], pageload.ErrDidNotLoad)
	assert.Contains(t, errs[1].Error(), "gone")

	assert.Contains(t, out.String(), "1 passed, 1 degraded, 2 failed")
	assert.True(t, ok.closed && degraded.closed && empty.closed, "every opened tab is closed")
}

func TestRunSuite_PerTargetLabel(t *testing.T) {
	p := &page{visible: map[string]bool{"body": true, "text=Groceries": true}}
	o := &opener{pages: map[string]*page{"http://shop": p}}
	suite := &config.Suite{Targets: []config.SuiteTarget{{Name: "shop", URL: "http://shop", Label: "Groceries"}}}

	var out bytes.Buffer
	require.NoError(t, runSuite(context.Background(), &out, zap.NewNop(), o, fastOptions(t), suite))
	assert.Contains(t, out.String(), "✔ shop")
}

func TestRunSuite_CancelledStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	suite := &config.Suite{Targets: []config.SuiteTarget{{Name: "a", URL: "http://a"}}}

	err := runSuite(ctx, &bytes.Buffer{}, zap.NewNop(), &opener{}, fastOptions(t), suite)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintReport_Screenshot(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, "home", pageload.Report{
		Outcome:    pageload.DegradedSuccess,
		Message:    "page structure loaded but API may not be working",
		Screenshot: filepath.Join("shots", "home.png"),
	})
	assert.Contains(t, out.String(), "⚠ home")
	assert.Contains(t, out.String(), "screenshot: "+filepath.Join("shots", "home.png"))
}

func TestAddTarget(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/targets", r.URL.Path)
		assert.Equal(t, "adm_test", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"target":{"id":"t1","url":"https://example.com"},"summary":{"target_id":"t1","outcome":"success","message":"ok"}}`))
	}))
	defer srv.Close()

	c := &apiClient{base: srv.URL + "/", key: "adm_test", http: srv.Client()}
	res, err := c.addTarget(context.Background(), "example.com", "My List", "")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", got["url"])
	assert.Equal(t, "My List", got["label"])
	assert.Equal(t, "t1", string(res.Target.ID))
	assert.Equal(t, "success", string(res.Summary.Outcome))
}

func TestAddTarget_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"duplicate"}`, http.StatusConflict)
	}))
	defer srv.Close()

	c := &apiClient{base: srv.URL, http: srv.Client()}
	_, err := c.addTarget(context.Background(), "https://example.com", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "https://example.com", normalizeInput("  example.com "))
	assert.Equal(t, "http://localhost:3000/", normalizeInput("http://localhost:3000/"))
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand(config.FromEnv())
	for _, name := range []string{"verify", "suite", "add"} {
		c, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}
