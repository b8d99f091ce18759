package domain

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// AuditStatus is derived from TimeCompleted and Report, it is never stored.
type AuditStatus string

const (
	AuditStatusRunning   AuditStatus = "RUNNING"
	AuditStatusFailed    AuditStatus = "FAILED"
	AuditStatusCompleted AuditStatus = "COMPLETED"
)

var httpRe = regexp.MustCompile(`^https?://`)

// Audit is one Lighthouse run against a URL.
type Audit struct {
	ID            string
	URL           string
	TimeCreated   time.Time
	TimeCompleted *time.Time
	Report        Report
}

// AuditBody is the full JSON representation of an audit.
type AuditBody struct {
	ID            string      `json:"id"`
	URL           string      `json:"url"`
	TimeCreated   time.Time   `json:"timeCreated"`
	TimeCompleted *time.Time  `json:"timeCompleted,omitempty"`
	Report        Report      `json:"report,omitempty"`
	Status        AuditStatus `json:"status"`
}

// AuditListItem is the abbreviated representation used in listings.
type AuditListItem struct {
	ID            string                     `json:"id"`
	URL           string                     `json:"url"`
	TimeCreated   time.Time                  `json:"timeCreated"`
	TimeCompleted *time.Time                 `json:"timeCompleted,omitempty"`
	Status        AuditStatus                `json:"status"`
	Categories    map[string]CategorySummary `json:"categories,omitempty"`
}

// ValidateURL checks that url is usable as an audit target.
func ValidateURL(url string) error {
	if url == "" {
		return fmt.Errorf("%w: no URL provided, URL is required for auditing", ErrInvalidRequest)
	}
	if !httpRe.MatchString(url) {
		return fmt.Errorf("%w: URL %q does not contain a protocol (http or https)", ErrInvalidRequest, url)
	}
	return nil
}

// NewAudit creates a RUNNING audit for url.
func NewAudit(url string) (*Audit, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}

	return &Audit{
		ID:          uuid.NewString(),
		URL:         url,
		TimeCreated: now(),
	}, nil
}

// Status derives the lifecycle state.
func (a *Audit) Status() AuditStatus {
	switch {
	case a.TimeCompleted == nil:
		return AuditStatusRunning
	case a.Report != nil:
		return AuditStatusCompleted
	default:
		return AuditStatusFailed
	}
}

// MarkSucceeded attaches the report and records completion.
func (a *Audit) MarkSucceeded(report Report) error {
	if a.TimeCompleted != nil {
		return fmt.Errorf("audit %s: %w", a.ID, ErrAlreadyCompleted)
	}
	if report == nil {
		return fmt.Errorf("audit %s: empty report", a.ID)
	}

	completed := now()
	a.Report = report
	a.TimeCompleted = &completed
	return nil
}

// MarkFailed records completion without a report.
func (a *Audit) MarkFailed() error {
	if a.TimeCompleted != nil {
		return fmt.Errorf("audit %s: %w", a.ID, ErrAlreadyCompleted)
	}

	completed := now()
	a.TimeCompleted = &completed
	return nil
}

// ReportJSON returns the report in its stored form. A report that cannot be
// serialized is logged and stored as NULL; the in-memory report is kept.
func (a *Audit) ReportJSON(logger *slog.Logger) []byte {
	if a.Report == nil {
		return nil
	}

	data, err := a.Report.Compact()
	if err != nil {
		logger.Info("report could not be converted to JSON", "audit_id", a.ID, "error", err)
		return nil
	}
	return data
}

// Categories returns id, title and score per report category.
func (a *Audit) Categories() map[string]CategorySummary {
	if a.Report == nil {
		return nil
	}
	categories, err := a.Report.Categories()
	if err != nil {
		return nil
	}
	return categories
}

func (a *Audit) Body() AuditBody {
	return AuditBody{
		ID:            a.ID,
		URL:           a.URL,
		TimeCreated:   a.TimeCreated,
		TimeCompleted: a.TimeCompleted,
		Report:        a.Report,
		Status:        a.Status(),
	}
}

func (a *Audit) ListItem() AuditListItem {
	return AuditListItem{
		ID:            a.ID,
		URL:           a.URL,
		TimeCreated:   a.TimeCreated,
		TimeCompleted: a.TimeCompleted,
		Status:        a.Status(),
		Categories:    a.Categories(),
	}
}

// now is truncated to PostgreSQL's timestamp precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
