package treatment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisched/medisched/internal/domain/appointment"
	"github.com/medisched/medisched/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	gate := auth.RequireRole(auth.RoleStaff, auth.RoleDoctor)
	api.GET("/treatment-protocols", h.ListProtocols, gate)
	api.GET("/treatment-protocols/:id", h.GetProtocol, gate)
	api.POST("/patient-treatments", h.CreateTreatment, gate)
	api.GET("/patient-treatments/patient/:id", h.ListByPatient, gate)
}

const dateLayout = "2006-01-02"

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrProtocolNotFound), errors.Is(err, ErrTreatmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyProtocol),
		errors.Is(err, appointment.ErrNoAvailability),
		errors.Is(err, appointment.ErrPastSlot):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
}

type createTreatmentRequest struct {
	PatientID  string `json:"patientId"`
	DoctorID   string `json:"doctorId"`
	ProtocolID string `json:"protocolId"`
	StartDate  string `json:"startDate"`
}

type followupWarning struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func (h *Handler) CreateTreatment(c echo.Context) error {
	var req createTreatmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
	}
	protocolID, err := uuid.Parse(req.ProtocolID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid protocolId")
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate must be YYYY-MM-DD")
	}

	result, err := h.svc.CreateTreatment(c.Request().Context(), CreateTreatmentInput{
		PatientID:  patientID,
		DoctorID:   doctorID,
		ProtocolID: protocolID,
		StartDate:  startDate,
	})
	if err != nil {
		return httpError(err)
	}

	body := map[string]interface{}{
		"treatment": result.Treatment,
		"followups": result.Followups,
	}
	// Unscheduled checkpoints are warnings on a success, not a failure:
	// everything that did book stays booked.
	if result.Partial != nil {
		warnings := make([]followupWarning, 0, len(result.Partial.Failed))
		for _, f := range result.Partial.Failed {
			warnings = append(warnings, followupWarning{
				Date:   f.Date.Format(dateLayout),
				Reason: f.Reason,
			})
		}
		body["warnings"] = warnings
		return c.JSON(http.StatusOK, body)
	}
	return c.JSON(http.StatusCreated, body)
}

func (h *Handler) ListProtocols(c echo.Context) error {
	items, err := h.svc.ListProtocols(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetProtocol(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProtocol(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}
