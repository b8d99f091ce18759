package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"math"

	"lighthouse_audit_service/internal/domain"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").
		Funcs(template.FuncMap{"score": formatScore}).
		ParseFS(templateFS, "templates/report.html"),
)

type reportPage struct {
	Audit   domain.AuditListItem
	Summary *domain.ReportSummary
	// Categories is Summary's categories in a stable order.
	Categories []domain.CategorySummary
	// Result is the whole report, indented.
	Result string
}

func renderReport(audit *domain.Audit) ([]byte, error) {
	page := reportPage{Audit: audit.ListItem()}

	if audit.Report != nil {
		summary, err := audit.Report.Summary()
		if err != nil {
			return nil, fmt.Errorf("summarize report of audit %s: %w", audit.ID, err)
		}
		page.Summary = summary
		page.Categories = summary.SortedCategories()

		var indented bytes.Buffer
		if err := json.Indent(&indented, audit.Report, "", "  "); err != nil {
			return nil, fmt.Errorf("indent report of audit %s: %w", audit.ID, err)
		}
		page.Result = indented.String()
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render report of audit %s: %w", audit.ID, err)
	}
	return buf.Bytes(), nil
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", int(math.Round(*score*100)))
}
