package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suiteYAML = `
defaults:
  label: My List
  timeout: 10s
targets:
  - url: http://localhost:3000/
  - name: staging
    url: https://staging.example.com/
    placeholder: New task
    timeout: 3s
`

func TestLoadSuite_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suiteYAML), 0o644))

	s, err := LoadSuite(path)
	require.NoError(t, err)
	require.Len(t, s.Targets, 2)

	first := s.Targets[0]
	assert.Equal(t, "http://localhost:3000/", first.Name)
	assert.Equal(t, "My List", first.Label)
	assert.Equal(t, 10*time.Second, first.Timeout)

	second := s.Targets[1]
	assert.Equal(t, "staging", second.Name)
	assert.Equal(t, "New task", second.Placeholder)
	assert.Equal(t, 3*time.Second, second.Timeout)
}

func TestParseSuite_Errors(t *testing.T) {
	_, err := ParseSuite([]byte("targets: []"))
	assert.ErrorContains(t, err, "no targets")

	_, err = ParseSuite([]byte("targets:\n  - name: x\n"))
	assert.ErrorContains(t, err, "no url")

	_, err = ParseSuite([]byte("targets:\n  - url: ftp://files.example.com/\n"))
	assert.ErrorContains(t, err, "is not an http(s) URL")

	_, err = ParseSuite([]byte("targets:\n  - url: http://ok.example.com/\n    timeout: -1s\n"))
	assert.ErrorContains(t, err, "timeout fails gte=0")

	_, err = ParseSuite([]byte("targets: [oops"))
	assert.Error(t, err)

	_, err = LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseSuite_ReportsEveryBadTarget(t *testing.T) {
	_, err := ParseSuite([]byte(`
targets:
  - url: http://ok.example.com/
  - name: a
  - url: not a url
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target 1: no url")
	assert.Contains(t, err.Error(), "target 2: url")
}
