// Package lighthouse runs the Lighthouse CLI against a running browser.
package lighthouse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"lighthouse_audit_service/internal/domain"
)

const (
	defaultTimeout = 5 * time.Minute
	maxStderrTail  = 2048
)

type Config struct {
	Path    string
	Timeout time.Duration
}

type Runner struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Runner {
	if cfg.Path == "" {
		cfg.Path = "lighthouse"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Runner{
		path:    cfg.Path,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "lighthouse"),
	}
}

// Run audits url through the browser listening on port and returns the raw
// Lighthouse result.
func (r *Runner) Run(ctx context.Context, url string, port int, config map[string]any) (domain.Report, error) {
	configPath, err := writeConfig(config)
	if err != nil {
		return nil, err
	}
	defer os.Remove(configPath)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := buildArgs(url, port, configPath)
	r.logger.Debug("running lighthouse", "url", url, "port", port)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("lighthouse timeout after %s", r.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w: %s", r.path, err, tail(stderr.String()))
	}

	report, err := domain.ParseReport(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	if summary, err := report.Summary(); err == nil && summary.RuntimeError != nil {
		r.logger.Warn("lighthouse reported a runtime error",
			"url", url,
			"code", summary.RuntimeError.Code,
			"message", summary.RuntimeError.Message,
		)
	}

	return report, nil
}

func buildArgs(url string, port int, configPath string) []string {
	return []string{
		url,
		"--port=" + strconv.Itoa(port),
		"--output=json",
		"--output-path=stdout",
		"--config-path=" + configPath,
		"--disable-storage-reset",
		"--quiet",
	}
}

func writeConfig(config map[string]any) (string, error) {
	f, err := os.CreateTemp("", "lighthouse-config-*.json")
	if err != nil {
		return "", fmt.Errorf("create lighthouse config: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(config); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write lighthouse config: %w", err)
	}
	return f.Name(), nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = s[len(s)-maxStderrTail:]
	}
	return s
}
