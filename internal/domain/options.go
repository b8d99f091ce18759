package domain

// AuditOptions are the per-request settings of a triggered audit. Zero values
// fall back to the service configuration.
type AuditOptions struct {
	AwaitAuditCompleted bool           `json:"awaitAuditCompleted,omitempty"`
	UpTimeout           int            `json:"upTimeout,omitempty"` // milliseconds
	ChromePort          int            `json:"chromePort,omitempty"`
	ChromePath          string         `json:"chromePath,omitempty"`
	ChromeArgs          []string       `json:"chromeArgs,omitempty"`
	LighthouseConfig    map[string]any `json:"lighthouseConfig,omitempty"`
}

// BrowserOptions describe how the headless browser is started.
type BrowserOptions struct {
	Port     int
	ExecPath string
	Args     []string
}
