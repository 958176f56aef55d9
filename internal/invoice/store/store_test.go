package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

var invoiceColumns = []string{
	"id", "number", "provider_id", "purchaser_id", "provider_name", "purchaser_name",
	"items", "currency", "subtotal", "tax", "total", "due_date", "status", "created_at", "updated_at",
}

func newStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store.New(db), mock
}

func invoiceRow(rows *sqlmock.Rows, id uuid.UUID, status string) *sqlmock.Rows {
	return rows.AddRow(
		id.String(), "INV-000042", uuid.NewString(), uuid.NewString(), "Acme", "Globex",
		[]byte(`[{"description":"Consulting","quantity":2,"unit_price":"50","total":"100"},{"description":"Setup","quantity":1,"unit_price":"25","total":"25"}]`),
		"USD", "125.00", "12.50", "137.50", time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC), status,
		time.Now(), nil,
	)
}

func TestStore_CreateInvoice(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()
	now := time.Now()

	inv := &invoice.Invoice{
		ProviderID:  uuid.New(),
		PurchaserID: uuid.New(),
		Items:       []invoice.Item{{Description: "Setup", Quantity: 1, UnitPrice: decimal.NewFromInt(25), Total: decimal.NewFromInt(25)}},
		Currency:    money.UGX,
		Subtotal:    money.New(decimal.NewFromInt(25), money.UGX),
		Tax:         money.New(decimal.RequireFromString("2.50"), money.UGX),
		Total:       money.New(decimal.RequireFromString("27.50"), money.UGX),
		DueDate:     now,
		Status:      invoice.StatusPending,
	}

	mock.ExpectQuery(`INSERT INTO invoices .*nextval\('invoice_number_seq'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "created_at", "updated_at", "provider_name", "purchaser_name"}).
			AddRow(id.String(), "INV-000001", now, now, "Acme Ltd", "Globex"))

	require.NoError(t, s.CreateInvoice(context.Background(), inv))
	assert.Equal(t, id, inv.ID)
	assert.Equal(t, "INV-000001", inv.Number)
	assert.Equal(t, "Acme Ltd", inv.ProviderName)
	assert.Equal(t, "Globex", inv.PurchaserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetInvoice(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM invoices i .* WHERE i.id = \$1`).
		WithArgs(id).
		WillReturnRows(invoiceRow(sqlmock.NewRows(invoiceColumns), id, "pending"))

	got, err := s.GetInvoice(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "INV-000042", got.Number)
	assert.Equal(t, "Acme", got.ProviderName)
	assert.Equal(t, invoice.StatusPending, got.Status)
	assert.Equal(t, money.USD, got.Total.Currency())
	assert.Equal(t, "137.50", got.Total.Display())
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(2), got.Items[0].Quantity)
}

func TestStore_GetForUpdate_LocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE i.id = \$1 FOR UPDATE OF i`).
		WithArgs(id).
		WillReturnRows(invoiceRow(sqlmock.NewRows(invoiceColumns), id, "overdue"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	got, err := store.GetForUpdate(context.Background(), tx, id)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusOverdue, got.Status)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListInvoices_Filters(t *testing.T) {
	s, mock := newStore(t)
	providerID := uuid.New()
	status := invoice.StatusPending

	mock.ExpectQuery(`AND i.provider_id = \$1 AND i.status = \$2 ORDER BY i.created_at DESC`).
		WithArgs(providerID, status).
		WillReturnRows(invoiceRow(sqlmock.NewRows(invoiceColumns), uuid.New(), "pending"))

	got, err := s.ListInvoices(context.Background(), invoice.ListFilter{ProviderID: &providerID, Status: &status})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateStatus(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}

	tests := []testCase{
		{
			name: "Updated",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE invoices`).
					WithArgs(invoice.StatusPaid, id, invoice.StatusPending).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "Conflict",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE invoices`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			wantErr: invoice.ErrStatusConflict,
		},
		{
			name: "Missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE invoices`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantErr: invoice.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newStore(t)
			tt.setup(mock)

			err := s.UpdateStatus(context.Background(), id, invoice.StatusPending, invoice.StatusPaid)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
