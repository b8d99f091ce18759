package domain

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReport = `{
  "requestedUrl": "https://example.com",
  "finalUrl": "https://example.com/",
  "lighthouseVersion": "12.0.0",
  "categories": {
    "performance": {"id": "performance", "title": "Performance", "score": 0.92},
    "seo": {"id": "seo", "title": "SEO", "score": null}
  }
}`

func TestNewAudit(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://example.com"},
		{name: "http with path", url: "http://localhost:3000/page?q=1"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "example.com", wantErr: true},
		{name: "other scheme", url: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now().Add(-time.Second)
			audit, err := NewAudit(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				assert.Nil(t, audit)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, audit.ID)
			assert.Equal(t, tt.url, audit.URL)
			assert.Equal(t, AuditStatusRunning, audit.Status())
			assert.WithinDuration(t, time.Now(), audit.TimeCreated, time.Since(before))
			assert.Nil(t, audit.TimeCompleted)
			assert.Nil(t, audit.Report)
		})
	}
}

func TestNewAudit_UniqueIDs(t *testing.T) {
	a, err := NewAudit("https://example.com")
	require.NoError(t, err)
	b, err := NewAudit("https://example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestAudit_Status(t *testing.T) {
	completed := time.Now()

	tests := []struct {
		name  string
		audit Audit
		want  AuditStatus
	}{
		{name: "not completed", audit: Audit{}, want: AuditStatusRunning},
		{name: "completed with report", audit: Audit{TimeCompleted: &completed, Report: Report(testReport)}, want: AuditStatusCompleted},
		{name: "completed without report", audit: Audit{TimeCompleted: &completed}, want: AuditStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.audit.Status())
		})
	}
}

func TestAudit_MarkSucceeded(t *testing.T) {
	audit, err := NewAudit("https://example.com")
	require.NoError(t, err)

	require.NoError(t, audit.MarkSucceeded(Report(testReport)))

	assert.Equal(t, AuditStatusCompleted, audit.Status())
	require.NotNil(t, audit.TimeCompleted)
	assert.False(t, audit.TimeCompleted.Before(audit.TimeCreated))
}

func TestAudit_MarkSucceeded_RejectsEmptyReport(t *testing.T) {
	audit, err := NewAudit("https://example.com")
	require.NoError(t, err)

	assert.Error(t, audit.MarkSucceeded(nil))
	assert.Equal(t, AuditStatusRunning, audit.Status())
}

func TestAudit_MarkFailed(t *testing.T) {
	audit, err := NewAudit("https://example.com")
	require.NoError(t, err)

	require.NoError(t, audit.MarkFailed())

	assert.Equal(t, AuditStatusFailed, audit.Status())
	assert.Nil(t, audit.Report)
}

func TestAudit_TerminalTransitionIsOneShot(t *testing.T) {
	audit, err := NewAudit("https://example.com")
	require.NoError(t, err)
	require.NoError(t, audit.MarkFailed())
	completed := *audit.TimeCompleted

	err = audit.MarkSucceeded(Report(testReport))
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	err = audit.MarkFailed()
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	assert.Equal(t, completed, *audit.TimeCompleted)
	assert.Equal(t, AuditStatusFailed, audit.Status())
}

func TestAudit_ReportJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no report", func(t *testing.T) {
		audit := Audit{ID: "a"}
		assert.Nil(t, audit.ReportJSON(logger))
	})

	t.Run("compacts report", func(t *testing.T) {
		audit := Audit{ID: "a", Report: Report(testReport)}
		data := audit.ReportJSON(logger)
		require.NotNil(t, data)
		assert.JSONEq(t, testReport, string(data))
		assert.NotContains(t, string(data), "\n")
	})

	t.Run("invalid report is stored as null but kept in memory", func(t *testing.T) {
		audit := Audit{ID: "a", Report: Report(`{"categories":`)}
		assert.Nil(t, audit.ReportJSON(logger))
		assert.NotNil(t, audit.Report)
	})
}

func TestAudit_Categories(t *testing.T) {
	audit := Audit{Report: Report(testReport)}

	categories := audit.Categories()

	require.Len(t, categories, 2)
	assert.Equal(t, "Performance", categories["performance"].Title)
	require.NotNil(t, categories["performance"].Score)
	assert.InDelta(t, 0.92, *categories["performance"].Score, 0.0001)
	assert.Nil(t, categories["seo"].Score)

	assert.Nil(t, (&Audit{}).Categories())
}

func TestAudit_BodyJSON(t *testing.T) {
	audit, err := NewAudit("https://example.com")
	require.NoError(t, err)

	data, err := json.Marshal(audit.Body())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, audit.ID, decoded["id"])
	assert.Equal(t, "RUNNING", decoded["status"])
	assert.NotContains(t, decoded, "timeCompleted")
	assert.NotContains(t, decoded, "report")

	require.NoError(t, audit.MarkSucceeded(Report(testReport)))
	data, err = json.Marshal(audit.Body())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "COMPLETED", decoded["status"])
	assert.Contains(t, decoded, "timeCompleted")
	report, ok := decoded["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "12.0.0", report["lighthouseVersion"])
}

func TestParseReport(t *testing.T) {
	report, err := ParseReport([]byte(testReport))
	require.NoError(t, err)
	assert.JSONEq(t, testReport, string(report))

	for _, raw := range []string{"", "   ", "null", "[]", "not json", `{"a":`} {
		_, err := ParseReport([]byte(raw))
		assert.Error(t, err, "input %q", raw)
	}
}

func TestReport_Summary(t *testing.T) {
	summary, err := Report(testReport).Summary()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", summary.RequestedURL)
	assert.Equal(t, "12.0.0", summary.LighthouseVersion)

	sorted := summary.SortedCategories()
	require.Len(t, sorted, 2)
	assert.Equal(t, "performance", sorted[0].ID)
	assert.Equal(t, "seo", sorted[1].ID)
}
