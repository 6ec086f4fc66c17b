package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/platform/classifier"
	"github.com/cardio/cardio/pkg/pagination"
)

// ErrInvalidInput marks report input that failed validation.
var ErrInvalidInput = errors.New("invalid input")

var validDiagnoses = map[string]bool{
	classifier.LabelPositive: true,
	classifier.LabelNegative: true,
}

type Service struct {
	reports Repository
}

func NewService(reports Repository) *Service {
	return &Service{reports: reports}
}

// Create stores a confirmed assessment as a report. The diagnosis must be
// one of the two labels the classifier produces; anything else means the
// caller is fabricating a result.
func (s *Service) Create(ctx context.Context, r *Report) (*Report, error) {
	if r.PatientName == "" {
		return nil, fmt.Errorf("%w: patient_name is required", ErrInvalidInput)
	}
	if !validDiagnoses[r.Diagnosis] {
		return nil, fmt.Errorf("%w: diagnosis must be %q or %q",
			ErrInvalidInput, classifier.LabelPositive, classifier.LabelNegative)
	}
	if r.DietPlan == "" || r.MedicationPlan == "" {
		return nil, fmt.Errorf("%w: diet_plan and medication_plan are required", ErrInvalidInput)
	}

	if err := s.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetByID fetches a single report.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

// LatestForPatient returns the most recent report addressed to the patient.
func (s *Service) LatestForPatient(ctx context.Context, patientName string) (*Report, error) {
	return s.reports.GetLatestByPatient(ctx, patientName)
}

// ListForPatient returns all reports addressed to the patient, newest first.
func (s *Service) ListForPatient(ctx context.Context, patientName string, p pagination.Params) ([]*Report, int, error) {
	return s.reports.ListByPatient(ctx, patientName, p)
}

// List returns all reports, newest first.
func (s *Service) List(ctx context.Context, p pagination.Params) ([]*Report, int, error) {
	return s.reports.List(ctx, p)
}
