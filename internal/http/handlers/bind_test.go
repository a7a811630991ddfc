package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fleetdev/carhub/internal/domain/car"
	"github.com/fleetdev/carhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string `json:"json"`
			Fields []struct {
				Field   string `json:"field"`
				Rule    string `json:"rule"`
				Param   string `json:"param"`
				Message string `json:"message"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindTarget() *gin.Engine {
	r := gin.New()

	r.POST("/carros", func(c *gin.Context) {
		var req car.CreateCarRequest

		if !handlers.BindJSON(c, &req) {
			return
		}

		c.JSON(http.StatusOK, req)
	})

	return r
}

func doBind(t *testing.T, body string) (*httptest.ResponseRecorder, bindErrorBody) {
	t.Helper()

	r := bindTarget()

	req := httptest.NewRequest(http.MethodPost, "/carros", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed bindErrorBody

	if w.Code != http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("failed to unmarshal error body %q: %v", w.Body.String(), err)
		}
	}

	return w, parsed
}

func TestBindJSON_ValidPayload(t *testing.T) {
	w, _ := doBind(t, `{"placa": "ABC123", "marca": "Fiat", "modelo": "Uno", "valor": 20000}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w, parsed := doBind(t, `{"placa": "AB", "marca": "F", "modelo": "", "valor": -1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	rules := map[string]string{}
	for _, fe := range parsed.Error.Details.Fields {
		rules[fe.Field] = fe.Rule
	}

	// field names must come from the json tags, not the Go struct fields
	if rules["placa"] != "min" {
		t.Fatalf("placa: got rule %q, want min (fields=%v)", rules["placa"], parsed.Error.Details.Fields)
	}
	if rules["marca"] != "min" {
		t.Fatalf("marca: got rule %q, want min", rules["marca"])
	}
	if rules["modelo"] != "required" {
		t.Fatalf("modelo: got rule %q, want required", rules["modelo"])
	}
	if rules["valor"] != "gt" {
		t.Fatalf("valor: got rule %q, want gt", rules["valor"])
	}
}

func TestBindJSON_MissingFields(t *testing.T) {
	w, parsed := doBind(t, `{}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if len(parsed.Error.Details.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(parsed.Error.Details.Fields), parsed.Error.Details.Fields)
	}

	for _, fe := range parsed.Error.Details.Fields {
		if fe.Rule != "required" {
			t.Fatalf("field %s: got rule %q, want required", fe.Field, fe.Rule)
		}
	}
}

func TestBindJSON_MalformedJSON(t *testing.T) {
	w, parsed := doBind(t, `{"placa": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if parsed.Error.Code != "invalid_request" {
		t.Fatalf("got code %q, want invalid_request", parsed.Error.Code)
	}
}

func TestBindJSON_TypeMismatch(t *testing.T) {
	w, parsed := doBind(t, `{"placa": "ABC123", "marca": "Fiat", "modelo": "Uno", "valor": "vinte mil"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if parsed.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("got json detail %q, want invalid_json_type (body=%s)", parsed.Error.Details.JSON, w.Body.String())
	}

	if len(parsed.Error.Details.Fields) != 1 || parsed.Error.Details.Fields[0].Field != "valor" {
		t.Fatalf("expected single field error on valor, got %v", parsed.Error.Details.Fields)
	}
}
