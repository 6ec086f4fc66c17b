package report

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cardio/cardio/pkg/pagination"
)

// ErrNotFound indicates no report matched the lookup.
var ErrNotFound = errors.New("report not found")

// Repository persists reports.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	// GetLatestByPatient returns the most recently created report addressed
	// to the given patient username.
	GetLatestByPatient(ctx context.Context, patientName string) (*Report, error)
	ListByPatient(ctx context.Context, patientName string, p pagination.Params) ([]*Report, int, error)
	List(ctx context.Context, p pagination.Params) ([]*Report, int, error)
}
