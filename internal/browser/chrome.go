// Package browser starts headless Chrome instances for Lighthouse to drive.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"

	"lighthouse_audit_service/internal/domain"
	"lighthouse_audit_service/internal/service"
)

type Launcher struct {
	logger *slog.Logger
}

func NewLauncher(logger *slog.Logger) *Launcher {
	return &Launcher{logger: logger.With("component", "browser")}
}

// Launch starts Chrome with the remote debugging port open. An empty
// ExecPath lets chromedp locate the binary.
func (l *Launcher) Launch(ctx context.Context, opts domain.BrowserOptions) (service.Browser, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Running no actions only starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	l.logger.Debug("chrome started", "port", opts.Port, "exec_path", opts.ExecPath)

	return &Chrome{
		port:          opts.Port,
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Chrome is a running browser. Close is safe to call more than once.
type Chrome struct {
	port          int
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

func (c *Chrome) Port() int {
	return c.port
}

func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		if err := chromedp.Cancel(c.ctx); err != nil {
			c.closeErr = fmt.Errorf("close chrome: %w", err)
		}
		c.cancelBrowser()
		c.cancelAlloc()
	})
	return c.closeErr
}

func allocatorOptions(opts domain.BrowserOptions) []chromedp.ExecAllocatorOption {
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		options = append(options, chromedp.ExecPath(opts.ExecPath))
	}
	for _, arg := range opts.Args {
		name, value := parseFlag(arg)
		if name == "" {
			continue
		}
		options = append(options, chromedp.Flag(name, value))
	}
	return options
}

// parseFlag splits a command line switch such as "--window-size=1280,800"
// into chromedp's flag name and value. Switches without a value are true.
func parseFlag(arg string) (string, any) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}
