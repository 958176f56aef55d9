package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicebox/internal/importer"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
)

// maxUploadSize bounds CSV uploads for import-items.
const maxUploadSize = 2 << 20

type Handler struct {
	invoices *invoice.Service
	payments *payment.Service
	importer *importer.Service
	activity *activity.Service
}

func NewHandler(invoices *invoice.Service, payments *payment.Service, importSvc *importer.Service, activitySvc *activity.Service) *Handler {
	return &Handler{invoices: invoices, payments: payments, importer: importSvc, activity: activitySvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}/status", h.updateStatus)
	r.Get("/{id}/payments", h.ledger)
}

// ProviderRoutes create and price invoices.
func (h *Handler) ProviderRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Post("/preview", h.preview)
	r.Post("/import-items", h.importItems)
}

// scalar holds a JSON number or string verbatim so line items are coerced by
// invoice.ParseLineItem rather than by the JSON decoder.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}

		*s = scalar(str)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a number or string, got %s", data)
	}

	*s = scalar(n)

	return nil
}

type itemRequest struct {
	Description string `json:"description"`
	Quantity    scalar `json:"quantity"`
	UnitPrice   scalar `json:"unit_price"`
}

func toLineItems(items []itemRequest) ([]invoice.LineItem, error) {
	out := make([]invoice.LineItem, len(items))
	for i, it := range items {
		li, err := invoice.ParseLineItem(i, it.Description, string(it.Quantity), string(it.UnitPrice))
		if err != nil {
			return nil, err
		}

		out[i] = li
	}

	return out, nil
}

type createInvoiceRequest struct {
	PurchaserID uuid.UUID      `json:"purchaser_id" validate:"required"`
	Items       []itemRequest  `json:"items" validate:"required,min=1"`
	Currency    money.Currency `json:"currency" validate:"required"`
	DueDate     string         `json:"due_date" validate:"required"`
}

func parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &respond.RequestError{Field: field, Reason: "must be a date like 2026-01-31"}
	}

	return t, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req createInvoiceRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	items, err := toLineItems(req.Items)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.invoices.Create(r.Context(), a, invoice.CreateParams{
		PurchaserID: req.PurchaserID,
		Items:       items,
		Currency:    money.Currency(strings.ToUpper(string(req.Currency))),
		DueDate:     due,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), a.UserID(), activity.ActionInvoiceCreated, "created invoice %s for %s", inv.Number, inv.Total)

	respond.JSON(w, http.StatusCreated, ToInvoiceResponse(inv, invoice.AllowedFor(a, inv), respond.Locale(r)))
}

// ListFilter reads the status and due_before query parameters.
func ListFilter(r *http.Request) (invoice.ListFilter, error) {
	var filter invoice.ListFilter

	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := invoice.Status(s)
		if !status.IsValid() {
			return filter, &respond.RequestError{Field: "status", Reason: "unknown invoice status"}
		}

		filter.Status = &status
	}

	if s := q.Get("due_before"); s != "" {
		t, err := parseDate("due_before", s)
		if err != nil {
			return filter, err
		}

		filter.DueBefore = &t
	}

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	filter, err := ListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	invoices, err := h.invoices.List(r.Context(), a, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToInvoiceResponseList(a, invoices, r))
}

// ToInvoiceResponseList renders invoices for the actor.
func ToInvoiceResponseList(a actor.Actor, invoices []*invoice.Invoice, r *http.Request) []InvoiceResponse {
	tag := respond.Locale(r)

	resp := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp[i] = ToInvoiceResponse(inv, invoice.AllowedFor(a, inv), tag)
	}

	return resp
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, &respond.RequestError{Field: "id", Reason: "invalid id"}
	}

	return id, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.invoices.Get(r.Context(), a, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToInvoiceResponse(inv, invoice.AllowedFor(a, inv), respond.Locale(r)))
}

type updateStatusRequest struct {
	Status invoice.Status `json:"status" validate:"required"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if !req.Status.IsValid() {
		respond.Error(w, r, &respond.RequestError{Field: "status", Reason: "unknown invoice status"})
		return
	}

	inv, err := h.invoices.UpdateStatus(r.Context(), a, id, req.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), a.UserID(), activity.ActionInvoiceStatusChanged, "marked invoice %s %s", inv.Number, inv.Status)

	respond.JSON(w, http.StatusOK, ToInvoiceResponse(inv, invoice.AllowedFor(a, inv), respond.Locale(r)))
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	l, err := h.payments.ListForInvoice(r.Context(), a, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ledgerResponse{
		Invoice:  ToInvoiceResponse(l.Invoice, invoice.AllowedFor(a, l.Invoice), respond.Locale(r)),
		Payments: ToPaymentResponseList(l.Payments),
		Balance:  l.Balance,
	})
}

type previewRequest struct {
	Items []itemRequest `json:"items" validate:"required,min=1"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	items, err := toLineItems(req.Items)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	totals, err := invoice.ComputeTotals(items)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTotalsResponse(totals))
}

// importItems accepts a CSV either as the "file" field of a multipart form or
// as the raw request body.
func (h *Handler) importItems(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	var src io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respond.Error(w, r, &respond.RequestError{Field: "file", Reason: "missing CSV upload"})
			return
		}
		defer file.Close()

		src = file
	}

	p, err := h.importer.Preview(src)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, importResponse{
		Profile:        p.Profile,
		Charset:        p.Charset,
		Delimiter:      p.Delimiter,
		totalsResponse: toTotalsResponse(p.Totals),
	})
}
