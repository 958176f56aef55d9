package report

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=report
type Repository interface {
	CountUsersByRole(ctx context.Context) (map[user.Role]int, error)
	CountInvoicesByStatus(ctx context.Context) (map[invoice.Status]int, error)
	// RevenueByCurrency sums the totals of paid invoices.
	RevenueByCurrency(ctx context.Context) (map[money.Currency]decimal.Decimal, error)
}

type InvoiceLister interface {
	List(ctx context.Context, a actor.Actor, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

type Service struct {
	repo     Repository
	invoices InvoiceLister
	group    singleflight.Group
}

func NewService(repo Repository, invoices InvoiceLister) *Service {
	return &Service{repo: repo, invoices: invoices}
}

type UserCounts struct {
	Total      int `json:"total"`
	Providers  int `json:"providers"`
	Purchasers int `json:"purchasers"`
	Admins     int `json:"admins"`
}

type AdminStats struct {
	Users    UserCounts             `json:"users"`
	Invoices map[invoice.Status]int `json:"invoices"`
	Revenue  []money.Money          `json:"revenue"`
}

// CurrencySummary aggregates invoice totals in one currency.
type CurrencySummary struct {
	Currency    money.Currency `json:"currency"`
	Invoiced    money.Money    `json:"invoiced"`
	Paid        money.Money    `json:"paid"`
	Outstanding money.Money    `json:"outstanding"`
	Defaulted   money.Money    `json:"defaulted"`
}

type Dashboard struct {
	Counts  map[invoice.Status]int `json:"counts"`
	Amounts []CurrencySummary      `json:"amounts"`
}

// AdminStats computes platform-wide figures. Concurrent callers share one
// computation.
func (s *Service) AdminStats(ctx context.Context) (*AdminStats, error) {
	ch := s.group.DoChan("admin-stats", func() (any, error) {
		return s.adminStats(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*AdminStats), nil
	}
}

func (s *Service) adminStats(ctx context.Context) (*AdminStats, error) {
	roles, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	statuses, err := s.repo.CountInvoicesByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting invoices: %w", err)
	}

	revenue, err := s.repo.RevenueByCurrency(ctx)
	if err != nil {
		return nil, fmt.Errorf("summing revenue: %w", err)
	}

	stats := &AdminStats{
		Users: UserCounts{
			Providers:  roles[user.RoleProvider],
			Purchasers: roles[user.RolePurchaser],
			Admins:     roles[user.RoleAdmin],
		},
		Invoices: make(map[invoice.Status]int, len(invoice.Statuses)),
		Revenue:  []money.Money{},
	}

	for _, n := range roles {
		stats.Users.Total += n
	}

	for _, st := range invoice.Statuses {
		stats.Invoices[st] = statuses[st]
	}

	for _, c := range money.Currencies {
		if amount, ok := revenue[c]; ok {
			stats.Revenue = append(stats.Revenue, money.New(amount, c).Round(money.DisplayPlaces))
		}
	}

	return stats, nil
}

// Dashboard summarizes the invoices visible to the actor.
func (s *Service) Dashboard(ctx context.Context, a actor.Actor) (*Dashboard, error) {
	invoices, err := s.invoices.List(ctx, a, invoice.ListFilter{})
	if err != nil {
		return nil, err
	}

	return summarize(invoices)
}

func summarize(invoices []*invoice.Invoice) (*Dashboard, error) {
	d := &Dashboard{Counts: make(map[invoice.Status]int, len(invoice.Statuses))}
	for _, st := range invoice.Statuses {
		d.Counts[st] = 0
	}

	byCurrency := map[money.Currency]*CurrencySummary{}

	for _, inv := range invoices {
		d.Counts[inv.Status]++

		sum, ok := byCurrency[inv.Currency]
		if !ok {
			zero := money.Zero(inv.Currency)
			sum = &CurrencySummary{Currency: inv.Currency, Invoiced: zero, Paid: zero, Outstanding: zero, Defaulted: zero}
			byCurrency[inv.Currency] = sum
		}

		var err error

		if sum.Invoiced, err = sum.Invoiced.Add(inv.Total); err != nil {
			return nil, err
		}

		bucket := &sum.Outstanding

		switch inv.Status {
		case invoice.StatusPaid:
			bucket = &sum.Paid
		case invoice.StatusDefaulted:
			bucket = &sum.Defaulted
		case invoice.StatusPending, invoice.StatusOverdue:
		}

		if *bucket, err = bucket.Add(inv.Total); err != nil {
			return nil, err
		}
	}

	for _, sum := range byCurrency {
		d.Amounts = append(d.Amounts, *sum)
	}

	slices.SortFunc(d.Amounts, func(a, b CurrencySummary) int {
		return slices.Index(money.Currencies, a.Currency) - slices.Index(money.Currencies, b.Currency)
	})

	return d, nil
}
