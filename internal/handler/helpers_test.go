package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/groceryhub/internal/store"
)

func TestValidatorPINRule(t *testing.T) {
	v := NewValidator()
	type req struct {
		PIN string `json:"pin" validate:"required,pin"`
	}
	tests := []struct {
		pin  string
		want bool
	}{
		{"1234", true},
		{"0000", true},
		{"123", false},
		{"12345", false},
		{"12a4", false},
		{"١٢٣٤", false},
	}
	for _, tt := range tests {
		err := v.Struct(req{PIN: tt.pin})
		if (err == nil) != tt.want {
			t.Errorf("pin %q: err = %v, want valid = %v", tt.pin, err, tt.want)
		}
	}
}

func TestValidationMessageUsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Struct(createListRequest{Name: "", PIN: "12", Date: "tomorrow"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := validationMessage(err)
	for _, want := range []string{"name is required", "pin must be exactly 4 digits", "date must be a date like 2006-01-02"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestWriteStoreError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{store.ErrInvalidName, http.StatusBadRequest, "VALIDATION"},
		{fmt.Errorf("add: %w", store.ErrInvalidItem), http.StatusBadRequest, "VALIDATION"},
		{store.ErrWrongPIN, http.StatusUnauthorized, "WRONG_PIN"},
		{store.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
		{fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{store.ErrDuplicateList, http.StatusConflict, "DUPLICATE"},
		{store.ErrDuplicateUser, http.StatusConflict, "DUPLICATE"},
		{fmt.Errorf("insert: %w", store.ErrUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	logger := slog.New(slog.DiscardHandler)
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeStoreError(rec, logger, "op", tt.err)

		var body map[string]string
		json.NewDecoder(rec.Body).Decode(&body)
		if rec.Code != tt.status || body["code"] != tt.code {
			t.Errorf("%v: got %d %q, want %d %q", tt.err, rec.Code, body["code"], tt.status, tt.code)
		}
		if body["error"] == "" {
			t.Errorf("%v: empty error message", tt.err)
		}
	}
}

func TestDecodeRejectsOversizedBody(t *testing.T) {
	big := `{"text":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	rec := httptest.NewRecorder()

	var dst parseItemsRequest
	if decode(rec, req, NewValidator(), &dst) {
		t.Fatal("decode accepted an oversized body")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
