package roster

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
	sched := api.Group("/doctors/schedule")
	sched.POST("/generate", h.GenerateSchedule, auth.RequireRole(auth.RoleStaff))
	sched.POST("/manual", h.AssignManually, auth.RequireRole(auth.RoleStaff))
	sched.POST("/swap", h.SwapShifts, auth.RequireRole(auth.RoleStaff))
	sched.GET("/by-date", h.ScheduleByDate, auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))

	api.GET("/doctors", h.ListDoctors, auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	api.GET("/doctors/:id/schedule", h.DoctorSchedule, auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
}

const dateLayout = "2006-01-02"

// httpError maps roster business errors onto response codes; anything
// unrecognized is a 503 so clients can tell "fix input" from "try later".
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInsufficientDoctors):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrAssignmentConflict), errors.Is(err, ErrAlreadySwapped):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSwapNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSwapSameDoctor):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
}

type generateRequest struct {
	StartDate       string `json:"startDate"`
	DoctorsPerShift int    `json:"doctorsPerShift"`
}

func (h *Handler) GenerateSchedule(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate must be YYYY-MM-DD")
	}
	entries, err := h.svc.GenerateSchedule(c.Request().Context(), start, req.DoctorsPerShift)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"generated": len(entries),
		"entries":   entries,
	})
}

type manualRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Shift    string `json:"shift"`
	IsOff    bool   `json:"isOff"`
	Override bool   `json:"override"`
}

func (h *Handler) AssignManually(c echo.Context) error {
	var req manualRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	shift, err := ParseShift(req.Shift)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.svc.AssignManually(c.Request().Context(), doctorID, date, shift, req.IsOff, req.Override)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

type swapSide struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Shift string `json:"shift"`
}

type swapRequest struct {
	Doctor1 swapSide `json:"doctor1"`
	Doctor2 swapSide `json:"doctor2"`
}

func parseSwapSide(s swapSide) (EntryRef, error) {
	var ref EntryRef
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return ref, errors.New("invalid doctor id")
	}
	date, err := time.Parse(dateLayout, s.Date)
	if err != nil {
		return ref, errors.New("date must be YYYY-MM-DD")
	}
	shift, err := ParseShift(s.Shift)
	if err != nil {
		return ref, err
	}
	return EntryRef{DoctorID: id, Date: date, Shift: shift}, nil
}

func (h *Handler) SwapShifts(c echo.Context) error {
	var req swapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ref1, err := parseSwapSide(req.Doctor1)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ref2, err := parseSwapSide(req.Doctor2)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e1, e2, err := h.svc.SwapShifts(c.Request().Context(), ref1, ref2)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor1": e1,
		"doctor2": e2,
	})
}

func (h *Handler) ScheduleByDate(c echo.Context) error {
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	items, err := h.svc.ScheduleForDate(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DoctorSchedule(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	from, err := time.Parse(dateLayout, c.QueryParam("startDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate must be YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "endDate must be YYYY-MM-DD")
	}
	entries, err := h.svc.ScheduleForDoctor(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
