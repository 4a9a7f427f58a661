// Package handler implements the JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/groceryhub/internal/middleware"
	"github.com/dukerupert/groceryhub/internal/pin"
	"github.com/dukerupert/groceryhub/internal/store"
)

const maxBodyBytes = 1 << 20

// NewValidator returns a validator that reports fields by their JSON names
// and knows the "pin" rule (exactly four digits).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return pin.Valid(fl.Field().String())
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// decode reads a JSON body into dst and validates it, writing a 400 on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON")
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "pin":
			msgs = append(msgs, fe.Field()+" must be exactly 4 digits")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "ne":
			msgs = append(msgs, fmt.Sprintf("%s must not be %q", fe.Field(), fe.Param()))
		case "datetime":
			msgs = append(msgs, fe.Field()+" must be a date like 2006-01-02")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// writeStoreError maps store errors to HTTP statuses. Unexpected errors are
// logged and reported as 500.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, store.ErrInvalidItem), errors.Is(err, store.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, store.ErrWrongPIN):
		writeError(w, http.StatusUnauthorized, "WRONG_PIN", "Incorrect PIN")
	case errors.Is(err, store.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "PERMISSION_DENIED", "Permission denied")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, store.ErrDuplicateList):
		writeError(w, http.StatusConflict, "DUPLICATE", "A list with this name already exists")
	case errors.Is(err, store.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "DUPLICATE", "A user with this name already exists")
	case errors.Is(err, store.ErrUnavailable):
		logger.Warn(op, "error", err)
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Storage is busy, please try again")
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
