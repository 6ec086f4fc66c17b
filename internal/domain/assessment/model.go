// Package assessment implements the doctor-facing prediction workflow: a
// set of clinical measurements is classified by the external model and the
// resulting diagnosis is enriched with generated diet and medication plans.
// Assessments are transient; persisting one as a report is a separate,
// explicit step.
package assessment

import (
	"fmt"
	"strings"
)

// ClinicalFeatures is the 13-value measurement set the model was trained
// on. Field order matters to the model and is fixed by Vector.
type ClinicalFeatures struct {
	Age      float64 `json:"age"`
	Sex      float64 `json:"sex"`
	CP       float64 `json:"cp"`
	Trestbps float64 `json:"trestbps"`
	Chol     float64 `json:"chol"`
	FBS      float64 `json:"fbs"`
	Restecg  float64 `json:"restecg"`
	Thalach  float64 `json:"thalach"`
	Exang    float64 `json:"exang"`
	Oldpeak  float64 `json:"oldpeak"`
	Slope    float64 `json:"slope"`
	CA       float64 `json:"ca"`
	Thal     float64 `json:"thal"`
}

// Vector returns the features in the fixed order the model expects.
func (f ClinicalFeatures) Vector() []float64 {
	return []float64{
		f.Age, f.Sex, f.CP, f.Trestbps, f.Chol, f.FBS, f.Restecg,
		f.Thalach, f.Exang, f.Oldpeak, f.Slope, f.CA, f.Thal,
	}
}

// Assessment is the outcome of one prediction request.
type Assessment struct {
	PatientName    string `json:"patient_name"`
	Diagnosis      string `json:"diagnosis"`
	DietPlan       string `json:"diet_plan"`
	MedicationPlan string `json:"medication_plan"`
}

// InputError reports request fields that were missing or not numeric.
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}
