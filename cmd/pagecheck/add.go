package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hamed0406/pagecheck/internal/domain"
)

func newAddCommand(g *globals) *cobra.Command {
	var (
		api         string
		key         string
		label       string
		placeholder string
	)
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a page with a running pagecheck API",
		Long: `Register a page for periodic checks. The API runs one check right away
and the result is printed.

The admin key is read from --key or PAGECHECK_API_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &apiClient{base: api, key: key, http: &http.Client{Timeout: 2 * time.Minute}}
			res, err := c.addTarget(cmd.Context(), args[0], label, placeholder)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(w, "added %s", res.Target.URL)
			fmt.Fprintf(w, " (id %s)\n", res.Target.ID)
			fmt.Fprintf(w, "  first check: %s  %s\n", res.Summary.Outcome, res.Summary.Message)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&api, "api", envOr("API_BASE", "http://localhost:8080"), "base URL of the pagecheck API")
	f.StringVar(&key, "key", os.Getenv("PAGECHECK_API_KEY"), "admin API key")
	f.StringVar(&label, "label", "", "per-target primary label")
	f.StringVar(&placeholder, "placeholder", "", "per-target input placeholder")
	return cmd
}

type apiClient struct {
	base string
	key  string
	http *http.Client
}

type addResponse struct {
	Target  domain.Target      `json:"target"`
	Summary domain.CheckResult `json:"summary"`
}

func (c *apiClient) addTarget(ctx context.Context, raw, label, placeholder string) (*addResponse, error) {
	u := normalizeInput(raw)
	if _, err := url.ParseRequestURI(u); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}

	body, err := json.Marshal(map[string]string{"url": u, "label": label, "placeholder": placeholder})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.base, "/")+"/api/targets", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("api returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	var out addResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode api response: %w", err)
	}
	return &out, nil
}

// normalizeInput defaults a bare host to https.
func normalizeInput(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
