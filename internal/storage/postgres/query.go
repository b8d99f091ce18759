package postgres

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lighthouse_audit_service/internal/domain"
)

// filter is a WHERE predicate over lighthouse_audits written with ? placeholders.
type filter struct {
	clause string
	args   []any
}

func byID(id string) *filter {
	return &filter{clause: "id = ?", args: []any{id}}
}

func byURL(url string) *filter {
	return &filter{clause: "url = ?", args: []any{url}}
}

func byOwningAudit(auditID string) *filter {
	return &filter{
		clause: "url IN (SELECT w.url FROM lighthouse_audits w WHERE w.id = ?)",
		args:   []any{auditID},
	}
}

// query accumulates SQL text and its arguments in text order, so nested
// fragments can each carry their own placeholders.
type query struct {
	sb   strings.Builder
	args []any
}

func (q *query) write(sql string, args ...any) {
	q.sb.WriteString(sql)
	q.args = append(q.args, args...)
}

func (q *query) where(f *filter) {
	if f == nil {
		return
	}
	q.write("\nWHERE "+f.clause, f.args...)
}

func (q *query) page(req domain.ListRequest) {
	if req.Limit != nil {
		q.write("\nLIMIT ?", *req.Limit)
	}
	if req.Offset != nil {
		q.write("\nOFFSET ?", *req.Offset)
	}
}

func (q *query) sql(db *sqlx.DB) string {
	return db.Rebind(q.sb.String())
}

const auditColumns = "id, url, time_created, time_completed, report_json"

// auditRow maps a lighthouse_audits row, either scanned from SQL or decoded
// from to_json output.
type auditRow struct {
	ID            string       `db:"id" json:"id"`
	URL           string       `db:"url" json:"url"`
	TimeCreated   time.Time    `db:"time_created" json:"time_created"`
	TimeCompleted *time.Time   `db:"time_completed" json:"time_completed"`
	ReportJSON    reportColumn `db:"report_json" json:"report_json"`
}

func (r auditRow) toDomain() domain.Audit {
	audit := domain.Audit{
		ID:          r.ID,
		URL:         r.URL,
		TimeCreated: r.TimeCreated.UTC(),
	}
	if r.TimeCompleted != nil {
		completed := r.TimeCompleted.UTC()
		audit.TimeCompleted = &completed
	}
	if len(r.ReportJSON) > 0 {
		audit.Report = domain.Report(r.ReportJSON)
	}
	return audit
}

// reportColumn is a nullable JSONB value.
type reportColumn []byte

func (c *reportColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = nil
	case []byte:
		*c = append(reportColumn(nil), v...)
	case string:
		*c = reportColumn(v)
	default:
		return fmt.Errorf("scan report_json: unsupported type %T", src)
	}
	return nil
}

func (c *reportColumn) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}
	*c = append(reportColumn(nil), data...)
	return nil
}
