package payment

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	invoicehttp "github.com/MrJamesThe3rd/invoicebox/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
)

type Handler struct {
	payments *payment.Service
	activity *activity.Service
}

func NewHandler(payments *payment.Service, activitySvc *activity.Service) *Handler {
	return &Handler{payments: payments, activity: activitySvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/my", h.listMine)
}

type recordPaymentRequest struct {
	InvoiceID   uuid.UUID       `json:"invoice_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    money.Currency  `json:"currency,omitempty"`
	Method      payment.Method  `json:"payment_method" validate:"required"`
	Notes       string          `json:"notes,omitempty" validate:"max=1000"`
	PaymentDate string          `json:"payment_date,omitempty"`
	Status      payment.Status  `json:"status,omitempty"`
}

type recordPaymentResponse struct {
	Payment invoicehttp.PaymentResponse `json:"payment"`
	Invoice invoicehttp.InvoiceResponse `json:"invoice"`
	Balance payment.Balance             `json:"balance"`
	Settled bool                        `json:"settled"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req recordPaymentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	params := payment.RecordParams{
		InvoiceID: req.InvoiceID,
		Amount:    req.Amount,
		Currency:  money.Currency(strings.ToUpper(string(req.Currency))),
		Method:    payment.Method(strings.ToLower(string(req.Method))),
		Notes:     req.Notes,
		Status:    req.Status,
	}

	if req.PaymentDate != "" {
		d, err := parsePaymentDate(req.PaymentDate)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		params.PaymentDate = d
	}

	res, err := h.payments.Record(r.Context(), a, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), a.UserID(), activity.ActionPaymentRecorded,
		"recorded %s payment of %s on invoice %s", res.Payment.Method, res.Payment.Amount, res.Invoice.Number)

	if res.Settled {
		h.activity.Log(r.Context(), a.UserID(), activity.ActionInvoiceStatusChanged,
			"invoice %s settled and marked %s", res.Invoice.Number, res.Invoice.Status)
	}

	respond.JSON(w, http.StatusCreated, recordPaymentResponse{
		Payment: invoicehttp.ToPaymentResponse(res.Payment),
		Invoice: invoicehttp.ToInvoiceResponse(res.Invoice, invoice.AllowedFor(a, res.Invoice), respond.Locale(r)),
		Balance: res.Balance,
		Settled: res.Settled,
	})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	payments, err := h.payments.ListMine(r.Context(), a)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, invoicehttp.ToPaymentResponseList(payments))
}

func parsePaymentDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &respond.RequestError{Field: "payment_date", Reason: "must be a date like 2026-01-31"}
}
