package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lighthouse_audit_service/internal/domain"
)

// WebsiteStore reads audits grouped by URL. Grouping, per-URL ordering and
// paging of the audit sub-list all happen in the query.
type WebsiteStore struct {
	db *sqlx.DB
}

func NewWebsiteStore(db *sqlx.DB) *WebsiteStore {
	return &WebsiteStore{db: db}
}

type websiteRow struct {
	URL             string         `db:"url"`
	TimeLastCreated time.Time      `db:"time_last_created"`
	AuditsJSON      pq.StringArray `db:"audits_json"`
}

func (s *WebsiteStore) GetByURL(ctx context.Context, url string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error) {
	websites, err := s.list(ctx, byURL(url), websiteReq, auditReq)
	if err != nil {
		return nil, err
	}
	if len(websites) == 0 {
		return nil, fmt.Errorf("%w: no audited website found for url %q", domain.ErrNotFound, url)
	}
	return &websites[0], nil
}

func (s *WebsiteStore) GetByAuditID(ctx context.Context, auditID string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error) {
	websites, err := s.list(ctx, byOwningAudit(auditID), websiteReq, auditReq)
	if err != nil {
		return nil, err
	}
	if len(websites) == 0 {
		return nil, fmt.Errorf("%w: no website found for audit id %q", domain.ErrNotFound, auditID)
	}
	return &websites[0], nil
}

// List returns one website per distinct URL, most recently audited first.
func (s *WebsiteStore) List(ctx context.Context, websiteReq, auditReq domain.ListRequest) ([]domain.Website, error) {
	return s.list(ctx, nil, websiteReq, auditReq)
}

func (s *WebsiteStore) list(ctx context.Context, f *filter, websiteReq, auditReq domain.ListRequest) ([]domain.Website, error) {
	var q query
	q.write(`SELECT o.url, MAX(o.time_created) AS time_last_created, ARRAY(
		SELECT to_json(n.*)::text
		FROM lighthouse_audits n
		WHERE n.url = o.url
		ORDER BY n.time_created DESC`)
	q.page(auditReq)
	q.write(`
	) AS audits_json
	FROM lighthouse_audits o`)
	q.where(f)
	q.write("\nGROUP BY o.url\nORDER BY time_last_created DESC")
	q.page(websiteReq)

	var rows []websiteRow
	if err := s.db.SelectContext(ctx, &rows, q.sql(s.db), q.args...); err != nil {
		return nil, fmt.Errorf("select websites: %w", err)
	}

	websites := make([]domain.Website, 0, len(rows))
	for _, row := range rows {
		audits := make([]domain.Audit, 0, len(row.AuditsJSON))
		for _, raw := range row.AuditsJSON {
			var a auditRow
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return nil, fmt.Errorf("decode audit of %s: %w", row.URL, err)
			}
			audits = append(audits, a.toDomain())
		}

		// An audit page past the end leaves nothing to build the website from.
		if len(audits) == 0 {
			continue
		}
		website, err := domain.NewWebsite(row.URL, audits)
		if err != nil {
			return nil, err
		}
		websites = append(websites, *website)
	}
	return websites, nil
}

// Total counts distinct audited URLs.
func (s *WebsiteStore) Total(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(DISTINCT url) FROM lighthouse_audits"); err != nil {
		return 0, fmt.Errorf("count websites: %w", err)
	}
	return total, nil
}
