// Package report persists confirmed assessment results and serves them to
// doctors and patients. Reports are immutable once created; there is no
// update or delete path.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Report is a stored assessment outcome for one patient. PatientName is the
// username the report is addressed to; patients only ever see reports whose
// PatientName equals their own username.
type Report struct {
	ID             uuid.UUID `json:"id"`
	PatientName    string    `json:"patient_name"`
	Diagnosis      string    `json:"diagnosis"`
	DietPlan       string    `json:"diet_plan"`
	MedicationPlan string    `json:"medication_plan"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}
