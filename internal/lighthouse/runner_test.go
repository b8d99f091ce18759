package lighthouse

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLighthouse writes an executable script standing in for the CLI. It
// records its arguments and the config file it was given next to itself.
func fakeLighthouse(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	script := `#!/bin/sh
dir="$(dirname "$0")"
printf '%s\n' "$@" > "$dir/args.txt"
for arg in "$@"; do
  case "$arg" in
    --config-path=*) cp "${arg#--config-path=}" "$dir/config.json" ;;
  esac
done
` + body + "\n"

	path := filepath.Join(dir, "lighthouse")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newRunner(path string, timeout time.Duration) *Runner {
	return New(Config{Path: path, Timeout: timeout}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_Success(t *testing.T) {
	path := fakeLighthouse(t, `echo '{"lighthouseVersion":"12.0.0","categories":{"seo":{"title":"SEO","score":1}}}'`)

	report, err := newRunner(path, 10*time.Second).Run(context.Background(), "https://example.com", 9222, map[string]any{
		"extends":  "lighthouse:default",
		"settings": map[string]any{"onlyCategories": []string{"seo"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lighthouseVersion":"12.0.0","categories":{"seo":{"title":"SEO","score":1}}}`, string(report))

	args, err := os.ReadFile(filepath.Join(filepath.Dir(path), "args.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(args)), "\n")
	assert.Equal(t, "https://example.com", lines[0])
	assert.Contains(t, lines, "--port=9222")
	assert.Contains(t, lines, "--output=json")
	assert.Contains(t, lines, "--output-path=stdout")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(path), "config.json"))
	require.NoError(t, err)
	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	assert.Equal(t, "lighthouse:default", config["extends"])
	assert.Contains(t, config, "settings")
}

func TestRun_RemovesConfigFile(t *testing.T) {
	path := fakeLighthouse(t, `echo '{}'`)

	_, err := newRunner(path, 10*time.Second).Run(context.Background(), "https://example.com", 9222, nil)
	require.NoError(t, err)

	args, err := os.ReadFile(filepath.Join(filepath.Dir(path), "args.txt"))
	require.NoError(t, err)
	for _, line := range strings.Split(string(args), "\n") {
		if configPath, ok := strings.CutPrefix(line, "--config-path="); ok {
			assert.NoFileExists(t, configPath)
			return
		}
	}
	t.Fatal("no --config-path argument passed")
}

func TestRun_ExitError(t *testing.T) {
	path := fakeLighthouse(t, `echo "Unable to connect to Chrome" >&2
exit 1`)

	_, err := newRunner(path, 10*time.Second).Run(context.Background(), "https://example.com", 9222, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to connect to Chrome")
}

func TestRun_InvalidOutput(t *testing.T) {
	path := fakeLighthouse(t, `echo 'not json'`)

	_, err := newRunner(path, 10*time.Second).Run(context.Background(), "https://example.com", 9222, nil)
	assert.Error(t, err)
}

func TestRun_EmptyOutput(t *testing.T) {
	path := fakeLighthouse(t, `true`)

	_, err := newRunner(path, 10*time.Second).Run(context.Background(), "https://example.com", 9222, nil)
	assert.Error(t, err)
}

func TestRun_Timeout(t *testing.T) {
	path := fakeLighthouse(t, `exec sleep 5`)

	start := time.Now()
	_, err := newRunner(path, 100*time.Millisecond).Run(context.Background(), "https://example.com", 9222, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := newRunner(filepath.Join(t.TempDir(), "missing"), time.Second).
		Run(context.Background(), "https://example.com", 9222, nil)
	assert.Error(t, err)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("  short\n"))
	assert.Len(t, tail(strings.Repeat("x", maxStderrTail+10)), maxStderrTail)
}
