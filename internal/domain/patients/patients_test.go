package patients

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/query"
)

func TestEditValues_SplitsPhone(t *testing.T) {
	row := Row{ID: 1, Name: "Ada Moore", Phone: PhonePrefix + "5551234567"}
	values := EditValues(row)
	if values["phone"] != "5551234567" {
		t.Errorf("expected local digits, got %q", values["phone"])
	}
}

func TestSubmitPayload_RePrefixesPhone(t *testing.T) {
	payload := SubmitPayload(map[string]string{"name": "Ada Moore", "phone": "5551234567"})
	if payload["phone"] != PhonePrefix+"5551234567" {
		t.Errorf("expected prefixed phone, got %q", payload["phone"])
	}
	// Editing without touching the already-prefixed value must not double it.
	payload = SubmitPayload(map[string]string{"phone": PhonePrefix + "5551234567"})
	if payload["phone"] != PhonePrefix+"5551234567" {
		t.Errorf("expected unchanged phone, got %q", payload["phone"])
	}
}

func TestPatients_CreateSendsPrefixedPhone(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/patients" {
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &received)
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	cache := query.New(2*time.Minute, 10*time.Minute)
	h, err := NewHandler(api.NewClient(srv.URL), cache, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	body := `{"name":"Ada Moore","gender":"female","bloodType":"A+","phone":"5551234567"}`
	req := httptest.NewRequest(http.MethodPost, "/views/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if received["phone"] != PhonePrefix+"5551234567" {
		t.Errorf("expected the upstream to receive the prefixed phone, got %q", received["phone"])
	}
}

func TestPatients_FormRejectsShortPhone(t *testing.T) {
	f := NewForm()
	f.OpenCreate()
	f.Set("name", "Ada Moore")
	f.Set("phone", "555123")

	errs := f.Validate()
	if errs["phone"] == "" {
		t.Error("expected a phone error")
	}
}
