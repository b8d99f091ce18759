package service

import (
	"maps"
	"strconv"
	"strings"

	"lighthouse_audit_service/internal/domain"
)

const (
	debuggingPortFlag = "--remote-debugging-port"
	noSandboxFlag     = "--no-sandbox"
)

// browserOptions merges the request options over the configured defaults.
// Configured args come first, then request args, then the debugging port and
// sandbox flags unless an argument already sets them.
func (s *AuditService) browserOptions(opts domain.AuditOptions) domain.BrowserOptions {
	port := s.config.ChromePort
	if opts.ChromePort > 0 {
		port = opts.ChromePort
	}
	execPath := s.config.ChromePath
	if opts.ChromePath != "" {
		execPath = opts.ChromePath
	}

	args := make([]string, 0, len(s.config.ChromeArgs)+len(opts.ChromeArgs)+2)
	args = append(args, s.config.ChromeArgs...)
	args = append(args, opts.ChromeArgs...)

	if existing, ok := findArg(args, debuggingPortFlag); ok {
		// An explicit port flag wins over the port option.
		if _, value, found := strings.Cut(existing, "="); found {
			if p, err := strconv.Atoi(value); err == nil {
				port = p
			}
		}
	} else {
		args = append(args, debuggingPortFlag+"="+strconv.Itoa(port))
	}
	if _, ok := findArg(args, noSandboxFlag); !ok {
		args = append(args, noSandboxFlag)
	}

	return domain.BrowserOptions{Port: port, ExecPath: execPath, Args: args}
}

// findArg returns the first argument containing partial.
func findArg(args []string, partial string) (string, bool) {
	for _, arg := range args {
		if strings.Contains(arg, partial) {
			return arg, true
		}
	}
	return "", false
}

// lighthouseConfig extends the default Lighthouse config with overrides.
func lighthouseConfig(overrides map[string]any) map[string]any {
	cfg := map[string]any{"extends": "lighthouse:default"}
	maps.Copy(cfg, overrides)
	return cfg
}
