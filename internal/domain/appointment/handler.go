package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisched/medisched/internal/platform/auth"
	"github.com/medisched/medisched/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments/slots", h.Slots)
	api.GET("/services", h.ListServices)
	api.POST("/appointments", h.Create)
	api.PUT("/appointments/status/:id", h.ChangeStatus,
		auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	api.PUT("/appointments/cancel/:id", h.Cancel)
	api.GET("/appointments/doctor/:id", h.ListByDoctor,
		auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	api.GET("/appointments/user/:id", h.ListByUser)
	api.GET("/appointments/staff", h.ListAll,
		auth.RequireRole(auth.RoleStaff))
}

const dateLayout = "2006-01-02"

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotConflict), errors.Is(err, ErrStaleStatus):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNoAvailability),
		errors.Is(err, ErrServiceNotFound), errors.Is(err, ErrDoctorRequired),
		errors.Is(err, ErrPastSlot):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
}

func (h *Handler) Slots(c echo.Context) error {
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return c.JSON(http.StatusOK, h.svc.AvailableSlots(date))
}

func (h *Handler) ListServices(c echo.Context) error {
	items, err := h.svc.ListServices(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

type createRequest struct {
	DoctorID    string `json:"doctorId"`
	ServiceID   string `json:"serviceId"`
	StartsAt    string `json:"appointmentTime"`
	IsAnonymous bool   `json:"isAnonymous"`
	Notes       string `json:"notes"`
}

func (h *Handler) Create(c echo.Context) error {
	principal, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(principal.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "subject is not a valid user id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid serviceId")
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointmentTime must be RFC 3339")
	}

	in := CreateInput{
		UserID:      userID,
		ServiceID:   serviceID,
		StartsAt:    startsAt,
		IsAnonymous: req.IsAnonymous,
		Notes:       req.Notes,
	}
	if req.DoctorID != "" {
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
		}
		in.DoctorID = &doctorID
	}

	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type statusRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expectedStatus"`
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var expected Status
	if req.ExpectedStatus != "" {
		if expected, err = ParseStatus(req.ExpectedStatus); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	a, err := h.svc.Transition(c.Request().Context(), id, next, expected)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByDoctor(c.Request().Context(), doctorID, pg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListByUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	principal, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	// Patients may only read their own history; clinic roles see all.
	if principal.UserID != userID.String() &&
		principal.Role != auth.RoleAdmin &&
		principal.Role != auth.RoleStaff &&
		principal.Role != auth.RoleDoctor {
		return echo.NewHTTPError(http.StatusForbidden, "cannot list another user's appointments")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByUser(c.Request().Context(), userID, pg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
