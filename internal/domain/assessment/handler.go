package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/domain/identity"
	"github.com/cardio/cardio/internal/platform/classifier"
	"github.com/cardio/cardio/internal/platform/planner"
	"github.com/cardio/cardio/internal/platform/session"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctorGroup := api.Group("", session.RequireRole(identity.RoleDoctor))
	doctorGroup.POST("/assessments", h.Create)
}

// assessmentRequest uses pointer fields so a missing measurement can be told
// apart from a legitimate zero. A non-numeric value fails JSON binding
// outright.
type assessmentRequest struct {
	PatientName string   `json:"patient_name"`
	Age         *float64 `json:"age"`
	Sex         *float64 `json:"sex"`
	CP          *float64 `json:"cp"`
	Trestbps    *float64 `json:"trestbps"`
	Chol        *float64 `json:"chol"`
	FBS         *float64 `json:"fbs"`
	Restecg     *float64 `json:"restecg"`
	Thalach     *float64 `json:"thalach"`
	Exang       *float64 `json:"exang"`
	Oldpeak     *float64 `json:"oldpeak"`
	Slope       *float64 `json:"slope"`
	CA          *float64 `json:"ca"`
	Thal        *float64 `json:"thal"`
}

func (r *assessmentRequest) validate() (ClinicalFeatures, error) {
	var missing []string
	need := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}

	f := ClinicalFeatures{
		Age:      need("age", r.Age),
		Sex:      need("sex", r.Sex),
		CP:       need("cp", r.CP),
		Trestbps: need("trestbps", r.Trestbps),
		Chol:     need("chol", r.Chol),
		FBS:      need("fbs", r.FBS),
		Restecg:  need("restecg", r.Restecg),
		Thalach:  need("thalach", r.Thalach),
		Exang:    need("exang", r.Exang),
		Oldpeak:  need("oldpeak", r.Oldpeak),
		Slope:    need("slope", r.Slope),
		CA:       need("ca", r.CA),
		Thal:     need("thal", r.Thal),
	}
	if r.PatientName == "" {
		missing = append(missing, "patient_name")
	}
	if len(missing) > 0 {
		return ClinicalFeatures{}, &InputError{Fields: missing}
	}
	return f, nil
}

// Create runs a prediction for the submitted measurements and returns the
// diagnosis with generated plans. Nothing is persisted; the doctor reviews
// the result and stores it as a report in a separate call.
func (h *Handler) Create(c echo.Context) error {
	var req assessmentRequest
	if err := c.Bind(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			msg := fmt.Sprintf("invalid value for field %q", typeErr.Field)
			if typeErr.Type != nil && typeErr.Type.Kind() == reflect.Float64 {
				msg = fmt.Sprintf("field %q must be numeric", typeErr.Field)
			}
			return echo.NewHTTPError(http.StatusBadRequest, msg)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	features, err := req.validate()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Assess(c.Request().Context(), req.PatientName, features)
	if err != nil {
		if errors.Is(err, classifier.ErrUnavailable) || errors.Is(err, planner.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "assessment failed")
	}

	return c.JSON(http.StatusOK, result)
}
