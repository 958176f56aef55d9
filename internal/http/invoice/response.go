package invoice

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
)

type partyResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type InvoiceResponse struct {
	ID                 uuid.UUID        `json:"id"`
	Number             string           `json:"number"`
	Provider           partyResponse    `json:"provider"`
	Purchaser          partyResponse    `json:"purchaser"`
	Items              []invoice.Item   `json:"items"`
	Currency           money.Currency   `json:"currency"`
	Subtotal           string           `json:"subtotal"`
	Tax                string           `json:"tax"`
	Total              string           `json:"total"`
	TotalFormatted     string           `json:"total_formatted"`
	DueDate            string           `json:"due_date"`
	Status             invoice.Status   `json:"status"`
	AllowedTransitions []invoice.Status `json:"allowed_transitions"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          *time.Time       `json:"updated_at,omitempty"`
}

// ToInvoiceResponse renders an invoice for the viewer. Allowed transitions
// are the ones this viewer could request.
func ToInvoiceResponse(inv *invoice.Invoice, allowed []invoice.Status, tag language.Tag) InvoiceResponse {
	if allowed == nil {
		allowed = []invoice.Status{}
	}

	return InvoiceResponse{
		ID:                 inv.ID,
		Number:             inv.Number,
		Provider:           partyResponse{ID: inv.ProviderID, Name: inv.ProviderName},
		Purchaser:          partyResponse{ID: inv.PurchaserID, Name: inv.PurchaserName},
		Items:              inv.Items,
		Currency:           inv.Currency,
		Subtotal:           inv.Subtotal.Display(),
		Tax:                inv.Tax.Display(),
		Total:              inv.Total.Display(),
		TotalFormatted:     inv.Total.Format(tag),
		DueDate:            inv.DueDate.Format(time.DateOnly),
		Status:             inv.Status,
		AllowedTransitions: allowed,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

type PaymentResponse struct {
	ID            uuid.UUID      `json:"id"`
	InvoiceID     uuid.UUID      `json:"invoice_id"`
	InvoiceNumber string         `json:"invoice_number"`
	RecordedBy    uuid.UUID      `json:"recorded_by"`
	Amount        money.Money    `json:"amount"`
	Method        payment.Method `json:"payment_method"`
	Notes         string         `json:"notes,omitempty"`
	PaymentDate   time.Time      `json:"payment_date"`
	Status        payment.Status `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		InvoiceNumber: p.InvoiceNumber,
		RecordedBy:    p.RecordedBy,
		Amount:        p.Amount,
		Method:        p.Method,
		Notes:         p.Notes,
		PaymentDate:   p.PaymentDate,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
	}
}

func ToPaymentResponseList(payments []*payment.Payment) []PaymentResponse {
	resp := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = ToPaymentResponse(p)
	}

	return resp
}

type ledgerResponse struct {
	Invoice  InvoiceResponse   `json:"invoice"`
	Payments []PaymentResponse `json:"payments"`
	Balance  payment.Balance   `json:"balance"`
}

type totalsResponse struct {
	Items    []invoice.Item `json:"items"`
	Subtotal string         `json:"subtotal"`
	Tax      string         `json:"tax"`
	Total    string         `json:"total"`
}

func toTotalsResponse(t invoice.Totals) totalsResponse {
	return totalsResponse{
		Items:    t.Items,
		Subtotal: t.Subtotal.StringFixed(money.DisplayPlaces),
		Tax:      t.Tax.StringFixed(money.DisplayPlaces),
		Total:    t.Total.StringFixed(money.DisplayPlaces),
	}
}

type importResponse struct {
	Profile   string `json:"profile"`
	Charset   string `json:"charset"`
	Delimiter string `json:"delimiter"`
	totalsResponse
}
