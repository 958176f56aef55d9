package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	apphttp "github.com/MrJamesThe3rd/invoicebox/internal/http"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/account"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/admin"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/dashboard"
	invoicehttp "github.com/MrJamesThe3rd/invoicebox/internal/http/invoice"
	paymenthttp "github.com/MrJamesThe3rd/invoicebox/internal/http/payment"
	"github.com/MrJamesThe3rd/invoicebox/internal/importer"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
	"github.com/MrJamesThe3rd/invoicebox/internal/report"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type fixture struct {
	server   *httptest.Server
	auth     *auth.Service
	users    *user.MockRepository
	invoices *invoice.MockRepository
	payments *payment.MockRepository
	rtx      *payment.MockRecordTx
	reports  *report.MockRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		users:    user.NewMockRepository(ctrl),
		invoices: invoice.NewMockRepository(ctrl),
		payments: payment.NewMockRepository(ctrl),
		rtx:      payment.NewMockRecordTx(ctrl),
		reports:  report.NewMockRepository(ctrl),
	}

	activityRepo := activity.NewMockRepository(ctrl)
	activityRepo.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f.auth = auth.NewService(auth.NewTokenService("router-test-secret-0123456789abcdef", "invoicebox", time.Hour), auth.NewBlacklist(client))

	userSvc := user.NewService(f.users).WithBcryptCost(bcrypt.MinCost)
	invoiceSvc := invoice.NewService(f.invoices, userSvc)
	paymentSvc := payment.NewService(f.payments, invoiceSvc)
	reportSvc := report.NewService(f.reports, invoiceSvc)
	activitySvc := activity.NewService(activityRepo)

	router := apphttp.New(apphttp.Options{RateLimit: 1000}, f.auth, apphttp.Handlers{
		Account:   account.NewHandler(userSvc, f.auth, activitySvc),
		Invoices:  invoicehttp.NewHandler(invoiceSvc, paymentSvc, importer.NewService(), activitySvc),
		Payments:  paymenthttp.NewHandler(paymentSvc, activitySvc),
		Dashboard: dashboard.NewHandler(reportSvc),
		Admin: admin.NewHandler(admin.Deps{
			Users: userSvc, Auth: f.auth, Invoices: invoiceSvc, Reports: reportSvc, Activity: activitySvc,
		}),
	})

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fixture) token(t *testing.T, u *user.User) string {
	t.Helper()

	tok, err := f.auth.Issue(u)
	require.NoError(t, err)

	return tok.AccessToken
}

func (f *fixture) do(t *testing.T, method, path, token, contentType string, body []byte) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, f.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)

	return resp, out
}

func (f *fixture) doJSON(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var raw []byte

	if body != nil {
		var err error

		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}

	return f.do(t, method, path, token, "application/json", raw)
}

func newUser(role user.Role) *user.User {
	return &user.User{ID: uuid.New(), Name: string(role) + " one", Email: string(role) + "@example.com", Role: role, Status: user.StatusActive}
}

func usd(s string) money.Money {
	return money.New(decimal.RequireFromString(s), money.USD)
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/v1/invoices", "/api/v1/payments/my", "/api/v1/dashboard", "/api/v1/admin/stats", "/api/v1/auth/profile"} {
		t.Run(path, func(t *testing.T) {
			resp, body := f.doJSON(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "unauthenticated", body["code"])
		})
	}
}

func TestRouter_Register(t *testing.T) {
	f := newFixture(t)

	f.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *user.User) error {
		u.ID = uuid.New()
		u.CreatedAt = time.Now()

		return nil
	})

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ADA@example.com", "password": "Sup3r$ecret!", "role": "provider",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	u := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", u["email"])
	assert.Equal(t, "provider", u["role"])

	tok := body["token"].(map[string]any)
	assert.NotEmpty(t, tok["access_token"])
}

func TestRouter_RegisterRejects(t *testing.T) {
	f := newFixture(t)

	type testCase struct {
		name     string
		body     map[string]string
		wantCode string
	}

	tests := []testCase{
		{name: "Admin", body: map[string]string{"name": "Eve", "email": "eve@example.com", "password": "Sup3r$ecret!", "role": "admin"}, wantCode: "invalid_request"},
		{name: "WeakPassword", body: map[string]string{"name": "Eve", "email": "eve@example.com", "password": "password", "role": "purchaser"}, wantCode: "weak_password"},
		{name: "BadEmail", body: map[string]string{"name": "Eve", "email": "eve", "password": "Sup3r$ecret!", "role": "purchaser"}, wantCode: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3r$ecret!"), bcrypt.MinCost)
	require.NoError(t, err)

	u := newUser(user.RolePurchaser)
	u.PasswordHash = string(hash)

	f.users.EXPECT().GetUserByEmail(gomock.Any(), "purchaser@example.com").Return(u, nil).Times(2)

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "purchaser@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body["code"])

	resp, body = f.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "purchaser@example.com", "password": "Sup3r$ecret!"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["token"])
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	u := newUser(user.RoleProvider)
	tok := f.token(t, u)

	resp, _ := f.doJSON(t, http.MethodPost, "/api/v1/auth/logout", tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := f.doJSON(t, http.MethodGet, "/api/v1/auth/profile", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", body["code"])
}

func TestRouter_CreateInvoice(t *testing.T) {
	f := newFixture(t)
	provider := newUser(user.RoleProvider)
	purchaser := newUser(user.RolePurchaser)

	f.users.EXPECT().GetUser(gomock.Any(), purchaser.ID).Return(purchaser, nil)
	f.invoices.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, inv *invoice.Invoice) error {
		inv.ID = uuid.New()
		inv.Number = "INV-000001"
		inv.ProviderName = provider.Name
		inv.PurchaserName = purchaser.Name

		return nil
	})

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/invoices", f.token(t, provider), map[string]any{
		"purchaser_id": purchaser.ID,
		"currency":     "usd",
		"due_date":     "2026-12-31",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": 2, "unit_price": "50"},
			{"description": "Setup", "quantity": 1, "unit_price": 25},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	assert.Equal(t, "INV-000001", body["number"])
	assert.Equal(t, "USD", body["currency"])
	assert.Equal(t, "125.00", body["subtotal"])
	assert.Equal(t, "12.50", body["tax"])
	assert.Equal(t, "137.50", body["total"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "2026-12-31", body["due_date"])
	assert.ElementsMatch(t, []any{"defaulted", "overdue", "paid"}, body["allowed_transitions"])
}

func TestRouter_CreateInvoiceRejects(t *testing.T) {
	f := newFixture(t)
	purchaser := newUser(user.RolePurchaser)

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/invoices", f.token(t, purchaser), map[string]any{
		"purchaser_id": purchaser.ID, "currency": "USD", "due_date": "2026-12-31",
		"items": []map[string]any{{"description": "x", "quantity": 1, "unit_price": 1}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["code"])

	provider := newUser(user.RoleProvider)

	resp, body = f.doJSON(t, http.MethodPost, "/api/v1/invoices", f.token(t, provider), map[string]any{
		"purchaser_id": purchaser.ID, "currency": "USD", "due_date": "2026-12-31",
		"items": []map[string]any{{"description": "x", "quantity": 0, "unit_price": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "quantity", body["field"])
}

func TestRouter_Preview(t *testing.T) {
	f := newFixture(t)
	provider := newUser(user.RoleProvider)

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/invoices/preview", f.token(t, provider), map[string]any{
		"items": []map[string]any{
			{"description": "Consulting", "quantity": 2, "unit_price": "50.00"},
			{"description": "Setup", "quantity": 1, "unit_price": "25.00"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "125.00", body["subtotal"])
	assert.Equal(t, "12.50", body["tax"])
	assert.Equal(t, "137.50", body["total"])
}

func TestRouter_PreviewCoercesItems(t *testing.T) {
	f := newFixture(t)
	provider := newUser(user.RoleProvider)

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/invoices/preview", f.token(t, provider), map[string]any{
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "unit_price": 50},
			{"description": "Setup", "quantity": 1, "unit_price": "25.00"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "137.50", body["total"])

	resp, body = f.doJSON(t, http.MethodPost, "/api/v1/invoices/preview", f.token(t, provider), map[string]any{
		"items": []map[string]any{
			{"description": "Consulting", "quantity": 2, "unit_price": "50.00"},
			{"description": "Setup", "quantity": 1.5, "unit_price": "25.00"},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "quantity", body["field"])
	assert.Contains(t, body["error"], "item 1")
}

func TestRouter_ImportItems(t *testing.T) {
	f := newFixture(t)
	provider := newUser(user.RoleProvider)

	csv := "Descrição;Quantidade;Preço unitário\nConsultoria;2;50,00\nInstalação;1;25,00\n"

	resp, body := f.do(t, http.MethodPost, "/api/v1/invoices/import-items", f.token(t, provider), "text/csv", []byte(csv))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "european", body["profile"])
	assert.Equal(t, ";", body["delimiter"])
	assert.Equal(t, "137.50", body["total"])
	assert.Len(t, body["items"], 2)

	resp, body = f.do(t, http.MethodPost, "/api/v1/invoices/import-items", f.token(t, provider), "text/csv", []byte("a,b\n1,2\n"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_csv", body["code"])
}

func pendingInvoice(provider, purchaser *user.User, total string) *invoice.Invoice {
	return &invoice.Invoice{
		ID: uuid.New(), Number: "INV-000042", ProviderID: provider.ID, PurchaserID: purchaser.ID,
		Currency: money.USD, Subtotal: usd(total), Tax: usd("0"), Total: usd(total),
		DueDate: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), Status: invoice.StatusPending,
	}
}

func TestRouter_RecordPayment(t *testing.T) {
	provider := newUser(user.RoleProvider)
	purchaser := newUser(user.RolePurchaser)

	type testCase struct {
		name        string
		total       string
		existing    []*payment.Payment
		amount      string
		wantStatus  int
		wantCode    string
		wantSettled bool
	}

	tests := []testCase{
		{
			name:  "SettlesInvoice",
			total: "137.50",
			existing: []*payment.Payment{
				{ID: uuid.New(), Amount: usd("50.00"), Method: payment.MethodCash, Status: payment.StatusCompleted},
			},
			amount:      "87.50",
			wantStatus:  http.StatusCreated,
			wantSettled: true,
		},
		{
			name:       "Overpayment",
			total:      "100.00",
			amount:     "150.00",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "overpayment",
		},
		{
			name:       "ZeroAmount",
			total:      "100.00",
			amount:     "0",
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			inv := pendingInvoice(provider, purchaser, tt.total)

			f.payments.EXPECT().BeginRecord(gomock.Any(), inv.ID).Return(f.rtx, nil)
			f.rtx.EXPECT().LockInvoice(gomock.Any(), inv.ID).Return(inv, nil)
			f.rtx.EXPECT().ListInvoicePayments(gomock.Any(), inv.ID).Return(tt.existing, nil)
			f.rtx.EXPECT().Rollback().Return(nil)

			if tt.wantStatus == http.StatusCreated {
				f.rtx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *payment.Payment) error {
					p.ID = uuid.New()
					return nil
				})
				f.rtx.EXPECT().UpdateInvoiceStatus(gomock.Any(), inv.ID, invoice.StatusPending, invoice.StatusPaid).Return(nil)
				f.rtx.EXPECT().Commit().Return(nil)
			}

			resp, body := f.doJSON(t, http.MethodPost, "/api/v1/payments", f.token(t, purchaser), map[string]any{
				"invoice_id":     inv.ID,
				"amount":         tt.amount,
				"payment_method": "mobile money",
			})
			require.Equal(t, tt.wantStatus, resp.StatusCode, body)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}

			assert.Equal(t, tt.wantSettled, body["settled"])

			balance := body["balance"].(map[string]any)
			assert.Equal(t, "137.50", balance["amount_paid"].(map[string]any)["amount"])
			assert.Equal(t, "0.00", balance["remaining"].(map[string]any)["amount"])
			assert.Equal(t, "paid", body["invoice"].(map[string]any)["status"])
		})
	}
}

func TestRouter_AdminCannotRecordPayment(t *testing.T) {
	f := newFixture(t)
	adminUser := newUser(user.RoleAdmin)

	resp, body := f.doJSON(t, http.MethodPost, "/api/v1/payments", f.token(t, adminUser), map[string]any{
		"invoice_id": uuid.New(), "amount": "10", "payment_method": "cash",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["code"])
}

func TestRouter_UpdateStatus(t *testing.T) {
	provider := newUser(user.RoleProvider)
	purchaser := newUser(user.RolePurchaser)

	type testCase struct {
		name       string
		actor      *user.User
		from       invoice.Status
		to         string
		wantUpdate bool
		wantStatus int
		wantCode   string
	}

	tests := []testCase{
		{name: "ProviderDefaults", actor: provider, from: invoice.StatusPending, to: "defaulted", wantUpdate: true, wantStatus: http.StatusOK},
		{name: "PaidIsTerminal", actor: provider, from: invoice.StatusPaid, to: "pending", wantStatus: http.StatusConflict, wantCode: "illegal_transition"},
		{name: "PurchaserForbidden", actor: purchaser, from: invoice.StatusPending, to: "paid", wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "UnknownStatus", actor: provider, from: invoice.StatusPending, to: "lost", wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			inv := pendingInvoice(provider, purchaser, "100.00")
			inv.Status = tt.from

			if tt.wantCode != "invalid_request" {
				f.invoices.EXPECT().GetInvoice(gomock.Any(), inv.ID).Return(inv, nil)
			}

			if tt.wantUpdate {
				f.invoices.EXPECT().UpdateStatus(gomock.Any(), inv.ID, tt.from, invoice.Status(tt.to)).Return(nil)
			}

			resp, body := f.doJSON(t, http.MethodPut, "/api/v1/invoices/"+inv.ID.String()+"/status", f.token(t, tt.actor), map[string]string{"status": tt.to})
			require.Equal(t, tt.wantStatus, resp.StatusCode, body)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}

			assert.Equal(t, tt.to, body["status"])
		})
	}
}

func TestRouter_InvoiceHiddenFromStrangers(t *testing.T) {
	f := newFixture(t)
	inv := pendingInvoice(newUser(user.RoleProvider), newUser(user.RolePurchaser), "10.00")
	stranger := newUser(user.RolePurchaser)

	f.invoices.EXPECT().GetInvoice(gomock.Any(), inv.ID).Return(inv, nil)

	resp, body := f.doJSON(t, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), f.token(t, stranger), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

func TestRouter_AdminRoutes(t *testing.T) {
	f := newFixture(t)
	adminUser := newUser(user.RoleAdmin)
	provider := newUser(user.RoleProvider)

	resp, _ := f.doJSON(t, http.MethodGet, "/api/v1/admin/stats", f.token(t, provider), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	f.reports.EXPECT().CountUsersByRole(gomock.Any()).Return(map[user.Role]int{user.RoleProvider: 2, user.RolePurchaser: 3}, nil)
	f.reports.EXPECT().CountInvoicesByStatus(gomock.Any()).Return(map[invoice.Status]int{invoice.StatusPaid: 1}, nil)
	f.reports.EXPECT().RevenueByCurrency(gomock.Any()).Return(map[money.Currency]decimal.Decimal{money.USD: decimal.RequireFromString("137.5")}, nil)

	resp, body := f.doJSON(t, http.MethodGet, "/api/v1/admin/stats", f.token(t, adminUser), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["users"].(map[string]any)["total"])
}

func TestRouter_AdminDeactivatesUser(t *testing.T) {
	f := newFixture(t)
	adminUser := newUser(user.RoleAdmin)
	target := newUser(user.RolePurchaser)
	targetToken := f.token(t, target)

	f.users.EXPECT().UpdateStatus(gomock.Any(), target.ID, user.StatusInactive).Return(nil)
	f.users.EXPECT().GetUser(gomock.Any(), target.ID).DoAndReturn(func(context.Context, uuid.UUID) (*user.User, error) {
		u := *target
		u.Status = user.StatusInactive

		return &u, nil
	})

	resp, body := f.doJSON(t, http.MethodPut, "/api/v1/admin/users/"+target.ID.String()+"/status", f.token(t, adminUser), map[string]string{"status": "inactive"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "inactive", body["status"])

	resp, _ = f.doJSON(t, http.MethodGet, "/api/v1/auth/profile", targetToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	f := newFixture(t)

	resp, err := f.server.Client().Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.True(t, strings.Contains(resp.Header.Get("Content-Security-Policy"), "default-src 'none'"))
}
