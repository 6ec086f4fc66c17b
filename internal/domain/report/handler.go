package report

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/domain/identity"
	"github.com/cardio/cardio/internal/platform/session"
	"github.com/cardio/cardio/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctorGroup := api.Group("", session.RequireRole(identity.RoleDoctor))
	doctorGroup.POST("/reports", h.Create)
	doctorGroup.GET("/reports", h.List)
	doctorGroup.GET("/reports/:id", h.GetByID)

	patientGroup := api.Group("", session.RequireRole(identity.RolePatient))
	patientGroup.GET("/reports/mine", h.Mine)
}

type createRequest struct {
	PatientName    string `json:"patient_name"`
	Diagnosis      string `json:"diagnosis"`
	DietPlan       string `json:"diet_plan"`
	MedicationPlan string `json:"medication_plan"`
}

// Create stores a confirmed assessment result as an immutable report.
func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	id := session.FromContext(c.Request().Context())

	r := &Report{
		PatientName:    req.PatientName,
		Diagnosis:      req.Diagnosis,
		DietPlan:       req.DietPlan,
		MedicationPlan: req.MedicationPlan,
		CreatedBy:      id.Username,
	}

	created, err := h.svc.Create(c.Request().Context(), r)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store report")
	}

	return c.JSON(http.StatusCreated, created)
}

// List returns stored reports, newest first. A patient query parameter
// narrows the listing to one patient's reports.
func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)

	var (
		reports []*Report
		total   int
		err     error
	)
	if patient := c.QueryParam("patient_name"); patient != "" {
		reports, total, err = h.svc.ListForPatient(c.Request().Context(), patient, p)
	} else {
		reports, total, err = h.svc.List(c.Request().Context(), p)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, p.Limit, p.Offset))
}

// GetByID returns one report.
func (h *Handler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}

	r, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch report")
	}

	return c.JSON(http.StatusOK, r)
}

// Mine returns the most recent report addressed to the logged-in patient.
// When several reports share the patient's username the newest wins.
func (h *Handler) Mine(c echo.Context) error {
	id := session.FromContext(c.Request().Context())

	r, err := h.svc.LatestForPatient(c.Request().Context(), id.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no report available")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch report")
	}

	return c.JSON(http.StatusOK, r)
}
