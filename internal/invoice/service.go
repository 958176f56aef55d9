package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	// UpdateStatus moves the invoice from one status to another and returns
	// ErrStatusConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}

type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service struct {
	repo  Repository
	users UserLookup
}

func NewService(repo Repository, users UserLookup) *Service {
	return &Service{repo: repo, users: users}
}

type CreateParams struct {
	PurchaserID uuid.UUID
	Items       []LineItem
	Currency    money.Currency
	DueDate     time.Time
}

type ListFilter struct {
	ProviderID  *uuid.UUID
	PurchaserID *uuid.UUID
	Status      *Status
	DueBefore   *time.Time
}

func (s *Service) Create(ctx context.Context, a actor.Actor, params CreateParams) (*Invoice, error) {
	provider, ok := a.(actor.Provider)
	if !ok {
		return nil, ErrForbidden
	}

	if !params.Currency.IsValid() {
		return nil, &ValidationError{Index: -1, Field: "currency", Reason: fmt.Sprintf("unsupported currency %q", params.Currency)}
	}

	if params.DueDate.IsZero() {
		return nil, &ValidationError{Index: -1, Field: "due_date", Reason: "is required"}
	}

	totals, err := ComputeTotals(params.Items)
	if err != nil {
		return nil, err
	}

	purchaser, err := s.users.Get(ctx, params.PurchaserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &ValidationError{Index: -1, Field: "purchaser_id", Reason: "unknown purchaser"}
		}

		return nil, fmt.Errorf("looking up purchaser: %w", err)
	}

	if purchaser.Role != user.RolePurchaser || !purchaser.IsActive() {
		return nil, &ValidationError{Index: -1, Field: "purchaser_id", Reason: "is not an active purchaser"}
	}

	inv := &Invoice{
		ProviderID:  provider.ID,
		PurchaserID: purchaser.ID,
		Items:       totals.Items,
		Currency:    params.Currency,
		Subtotal:    money.New(totals.Subtotal, params.Currency),
		Tax:         money.New(totals.Tax, params.Currency),
		Total:       money.New(totals.Total, params.Currency),
		DueDate:     params.DueDate,
		Status:      StatusPending,
	}
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

// Get returns the invoice when the actor may see it. Invoices outside the
// actor's scope are reported as not found.
func (s *Service) Get(ctx context.Context, a actor.Actor, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanView(a, inv) {
		return nil, ErrNotFound
	}

	return inv, nil
}

// List narrows the filter to the actor's own invoices.
func (s *Service) List(ctx context.Context, a actor.Actor, filter ListFilter) ([]*Invoice, error) {
	switch a := a.(type) {
	case actor.Provider:
		filter.ProviderID = &a.ID
	case actor.Purchaser:
		filter.PurchaserID = &a.ID
	case actor.Admin:
	default:
		return nil, ErrForbidden
	}

	return s.repo.ListInvoices(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, a actor.Actor, id uuid.UUID, to Status) (*Invoice, error) {
	inv, err := s.Get(ctx, a, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(a, inv, to); err != nil {
		return nil, err
	}

	if err := CheckTransition(inv.Status, to); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, inv.ID, inv.Status, to); err != nil {
		return nil, err
	}

	inv.Status = to

	return inv, nil
}

// MarkOverdue moves every pending invoice due before asOf to overdue and
// returns how many were moved. Invoices settled meanwhile are skipped.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	invoices, err := s.repo.ListInvoices(ctx, ListFilter{
		Status:    new(StatusPending),
		DueBefore: &asOf,
	})
	if err != nil {
		return 0, fmt.Errorf("listing due invoices: %w", err)
	}

	moved := 0

	for _, inv := range invoices {
		if err := CheckTransition(inv.Status, StatusOverdue); err != nil {
			continue
		}

		err := s.repo.UpdateStatus(ctx, inv.ID, inv.Status, StatusOverdue)
		if errors.Is(err, ErrStatusConflict) {
			continue
		}

		if err != nil {
			return moved, fmt.Errorf("marking invoice %s overdue: %w", inv.Number, err)
		}

		moved++
	}

	return moved, nil
}
