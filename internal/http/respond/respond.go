package respond

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	"github.com/MrJamesThe3rd/invoicebox/internal/importer"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// RequestError reports a malformed request body or parameter.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Decode reads a JSON body into dst and runs its validate tags.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &RequestError{Reason: fmt.Sprintf("malformed JSON body: %v", err)}
	}

	return Validate(dst)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &RequestError{Reason: err.Error()}
	}

	fe := verrs[0]

	return &RequestError{Field: fe.Field(), Reason: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	}

	return "failed " + fe.Tag() + " check"
}

type mapped struct {
	status int
	code   string
	field  string
}

func classify(err error) mapped {
	var (
		reqErr        *RequestError
		validationErr *invoice.ValidationError
		amountErr     *payment.InvalidAmountError
		overErr       *payment.OverpaymentError
		mismatchErr   *money.CurrencyMismatchError
		transitionErr *invoice.IllegalTransitionError
		csvErr        *csv.ParseError
	)

	switch {
	case errors.As(err, &reqErr):
		return mapped{http.StatusBadRequest, "invalid_request", reqErr.Field}
	case errors.As(err, &validationErr):
		return mapped{http.StatusBadRequest, "validation_error", validationErr.Field}
	case errors.As(err, &amountErr):
		return mapped{http.StatusBadRequest, "invalid_amount", "amount"}
	case errors.As(err, &overErr):
		return mapped{http.StatusUnprocessableEntity, "overpayment", "amount"}
	case errors.As(err, &mismatchErr):
		return mapped{http.StatusUnprocessableEntity, "currency_mismatch", "currency"}
	case errors.As(err, &transitionErr):
		return mapped{http.StatusConflict, "illegal_transition", "status"}
	case errors.As(err, &csvErr), errors.Is(err, importer.ErrNoHeader):
		return mapped{http.StatusBadRequest, "invalid_csv", "file"}
	case errors.Is(err, invoice.ErrStatusConflict):
		return mapped{http.StatusConflict, "status_conflict", ""}
	case errors.Is(err, payment.ErrInvoiceClosed):
		return mapped{http.StatusConflict, "invoice_closed", ""}
	case errors.Is(err, user.ErrEmailTaken):
		return mapped{http.StatusConflict, "email_taken", "email"}
	case errors.Is(err, user.ErrWeakPassword):
		return mapped{http.StatusBadRequest, "weak_password", "password"}
	case errors.Is(err, user.ErrInvalidRole):
		return mapped{http.StatusBadRequest, "invalid_role", "role"}
	case errors.Is(err, user.ErrInvalidStatus):
		return mapped{http.StatusBadRequest, "invalid_status", "status"}
	case errors.Is(err, user.ErrInvalidCredentials):
		return mapped{http.StatusUnauthorized, "invalid_credentials", ""}
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrRevokedToken), errors.Is(err, actor.ErrMissing):
		return mapped{http.StatusUnauthorized, "unauthenticated", ""}
	case errors.Is(err, user.ErrInactive):
		return mapped{http.StatusForbidden, "account_inactive", ""}
	case errors.Is(err, invoice.ErrForbidden), errors.Is(err, payment.ErrForbidden), errors.Is(err, user.ErrForbidden):
		return mapped{http.StatusForbidden, "forbidden", ""}
	case errors.Is(err, invoice.ErrNotFound), errors.Is(err, payment.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return mapped{http.StatusNotFound, "not_found", ""}
	}

	return mapped{http.StatusInternalServerError, "internal_error", ""}
}

// Error writes err with the status of its kind. Unknown errors are logged and
// reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	m := classify(err)

	msg := err.Error()
	if m.status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)

		msg = "internal error"
	}

	JSON(w, m.status, errorResponse{Error: msg, Code: m.code, Field: m.field})
}

// Status reports the HTTP status Error would use for err.
func Status(err error) int {
	return classify(err).status
}
