package treatment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func postTreatment(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h.CreateTreatment(e.NewContext(req, rec))
}

func treatmentBody(p *Protocol) string {
	return `{"patientId":"` + uuid.New().String() + `","doctorId":"` + uuid.New().String() +
		`","protocolId":"` + p.ID.String() + `","startDate":"2024-01-01"}`
}

func TestHandler_CreateTreatment(t *testing.T) {
	p := thirtyDayProtocol()
	h := NewHandler(newTestService(p, newMockBooker()))

	rec, err := postTreatment(t, h, treatmentBody(p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp map[string]json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if _, ok := resp["warnings"]; ok {
		t.Error("clean success must not carry warnings")
	}
}

func TestHandler_CreateTreatment_PartialIsSuccess(t *testing.T) {
	p := thirtyDayProtocol()
	booker := newMockBooker()
	booker.taken[date("2024-01-16").Add(7*time.Hour).Unix()] = true
	booker.taken[date("2024-01-16").Add(8*time.Hour).Unix()] = true
	h := NewHandler(newTestService(p, booker))

	rec, err := postTreatment(t, h, treatmentBody(p))
	if err != nil {
		t.Fatalf("partial outcome must not be an HTTP error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Warnings []followupWarning `json:"warnings"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Warnings) != 1 || resp.Warnings[0].Date != "2024-01-16" {
		t.Errorf("expected one warning for 2024-01-16, got %+v", resp.Warnings)
	}
}

func TestHandler_CreateTreatment_UnknownProtocol(t *testing.T) {
	p := thirtyDayProtocol()
	h := NewHandler(newTestService(p, newMockBooker()))

	body := `{"patientId":"` + uuid.New().String() + `","doctorId":"` + uuid.New().String() +
		`","protocolId":"` + uuid.New().String() + `","startDate":"2024-01-01"}`
	_, err := postTreatment(t, h, body)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_CreateTreatment_BadDate(t *testing.T) {
	p := thirtyDayProtocol()
	h := NewHandler(newTestService(p, newMockBooker()))

	body := `{"patientId":"` + uuid.New().String() + `","doctorId":"` + uuid.New().String() +
		`","protocolId":"` + p.ID.String() + `","startDate":"01/01/2024"}`
	_, err := postTreatment(t, h, body)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
