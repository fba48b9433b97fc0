package roster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(doctorCount int) (*Handler, []*Doctor, *echo.Echo) {
	svc, _, docs := newTestService(doctorCount)
	return NewHandler(svc), docs, echo.New()
}

func TestHandler_GenerateSchedule(t *testing.T) {
	h, _, e := newTestHandler(4)
	body := `{"startDate":"2024-03-04","doctorsPerShift":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GenerateSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["generated"].(float64) != 28 {
		t.Errorf("expected 28 generated, got %v", resp["generated"])
	}
}

func TestHandler_GenerateSchedule_BadDate(t *testing.T) {
	h, _, e := newTestHandler(4)
	body := `{"startDate":"03/04/2024","doctorsPerShift":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.GenerateSchedule(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GenerateSchedule_Insufficient(t *testing.T) {
	h, _, e := newTestHandler(1)
	body := `{"startDate":"2024-03-04","doctorsPerShift":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.GenerateSchedule(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %v", err)
	}
}

func TestHandler_SwapShifts(t *testing.T) {
	h, docs, e := newTestHandler(2)
	ctx := context.Background()
	h.svc.AssignManually(ctx, docs[0].ID, date("2024-03-04"), ShiftMorning, false, false)
	h.svc.AssignManually(ctx, docs[1].ID, date("2024-03-05"), ShiftAfternoon, false, false)

	body := `{"doctor1":{"id":"` + docs[0].ID.String() + `","date":"2024-03-04","shift":"MORNING"},` +
		`"doctor2":{"id":"` + docs[1].ID.String() + `","date":"2024-03-05","shift":"AFTERNOON"}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SwapShifts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_SwapShifts_NotFound(t *testing.T) {
	h, docs, e := newTestHandler(2)
	body := `{"doctor1":{"id":"` + docs[0].ID.String() + `","date":"2024-03-04","shift":"MORNING"},` +
		`"doctor2":{"id":"` + docs[1].ID.String() + `","date":"2024-03-05","shift":"AFTERNOON"}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SwapShifts(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ScheduleByDate(t *testing.T) {
	h, docs, e := newTestHandler(2)
	h.svc.AssignManually(context.Background(), docs[0].ID, date("2024-03-04"), ShiftMorning, false, false)

	req := httptest.NewRequest(http.MethodGet, "/?date=2024-03-04", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ScheduleByDate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var items []DaySchedule
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 {
		t.Errorf("expected 1 entry, got %d", len(items))
	}
}

func TestHandler_DoctorSchedule(t *testing.T) {
	h, docs, e := newTestHandler(2)
	h.svc.AssignManually(context.Background(), docs[0].ID, date("2024-03-04"), ShiftMorning, false, false)

	req := httptest.NewRequest(http.MethodGet, "/?startDate=2024-03-01&endDate=2024-03-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(docs[0].ID.String())

	if err := h.DoctorSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
