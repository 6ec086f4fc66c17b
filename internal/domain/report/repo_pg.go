package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardio/cardio/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo creates a Postgres-backed report repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const reportCols = `id, patient_name, diagnosis, diet_plan, medication_plan, created_by, created_at`

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.PatientName, &r.Diagnosis, &r.DietPlan,
		&r.MedicationPlan, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *repoPG) Create(ctx context.Context, r *Report) error {
	r.ID = uuid.New()

	query := `INSERT INTO reports (id, patient_name, diagnosis, diet_plan, medication_plan, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := p.pool.QueryRow(ctx, query,
		r.ID, r.PatientName, r.Diagnosis, r.DietPlan, r.MedicationPlan, r.CreatedBy).
		Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportCols)

	r, err := scanReport(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (p *repoPG) GetLatestByPatient(ctx context.Context, patientName string) (*Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports
		WHERE patient_name = $1
		ORDER BY created_at DESC
		LIMIT 1`, reportCols)

	r, err := scanReport(p.pool.QueryRow(ctx, query, patientName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest report for patient: %w", err)
	}
	return r, nil
}

func (p *repoPG) ListByPatient(ctx context.Context, patientName string, pg pagination.Params) ([]*Report, int, error) {
	var total int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE patient_name = $1`, patientName).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count reports for patient: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM reports
		WHERE patient_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, reportCols)

	rows, err := p.pool.Query(ctx, query, patientName, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports for patient: %w", err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (p *repoPG) List(ctx context.Context, pg pagination.Params) ([]*Report, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, reportCols)

	rows, err := p.pool.Query(ctx, query, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func collectReports(rows pgx.Rows) ([]*Report, error) {
	reports := make([]*Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
