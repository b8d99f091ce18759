package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"lighthouse_audit_service/internal/domain"
)

type AuditStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewAuditStore(db *sqlx.DB, logger *slog.Logger) *AuditStore {
	return &AuditStore{db: db, logger: logger}
}

// Persist inserts the audit or overwrites every mutable column of the row
// with the same id.
func (s *AuditStore) Persist(ctx context.Context, audit *domain.Audit) error {
	query := `
		INSERT INTO lighthouse_audits (id, url, time_created, time_completed, report_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			time_created = EXCLUDED.time_created,
			time_completed = EXCLUDED.time_completed,
			report_json = EXCLUDED.report_json`

	var report sql.NullString
	if data := audit.ReportJSON(s.logger); data != nil {
		report = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		audit.ID,
		audit.URL,
		audit.TimeCreated,
		audit.TimeCompleted,
		report,
	)
	if err != nil {
		return fmt.Errorf("persist audit %s: %w", audit.ID, err)
	}
	return nil
}

func (s *AuditStore) GetByID(ctx context.Context, id string) (*domain.Audit, error) {
	audits, err := s.list(ctx, byID(id), domain.ListRequest{})
	if err != nil {
		return nil, err
	}
	if len(audits) == 0 {
		return nil, fmt.Errorf("%w: audit not found for id %q", domain.ErrNotFound, id)
	}
	return &audits[0], nil
}

// List returns audits newest first.
func (s *AuditStore) List(ctx context.Context, req domain.ListRequest) ([]domain.Audit, error) {
	return s.list(ctx, nil, req)
}

func (s *AuditStore) list(ctx context.Context, f *filter, req domain.ListRequest) ([]domain.Audit, error) {
	var q query
	q.write("SELECT " + auditColumns + " FROM lighthouse_audits")
	q.where(f)
	q.write("\nORDER BY time_created DESC")
	q.page(req)

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, q.sql(s.db), q.args...); err != nil {
		return nil, fmt.Errorf("select audits: %w", err)
	}

	audits := make([]domain.Audit, len(rows))
	for i, row := range rows {
		audits[i] = row.toDomain()
	}
	return audits, nil
}

func (s *AuditStore) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM lighthouse_audits"); err != nil {
		return 0, fmt.Errorf("count audits: %w", err)
	}
	return total, nil
}

// DeleteByID removes the audit and returns the deleted row.
func (s *AuditStore) DeleteByID(ctx context.Context, id string) (*domain.Audit, error) {
	query := `
		DELETE FROM lighthouse_audits
		WHERE id = $1
		RETURNING ` + auditColumns

	var row auditRow
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: audit not found for id %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete audit %s: %w", id, err)
	}

	audit := row.toDomain()
	return &audit, nil
}
