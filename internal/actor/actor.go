// Package actor carries the authenticated caller through a request.
//
// An Actor is one of Provider, Purchaser or Admin. Callers branch on it with a
// type switch instead of comparing role strings, so adding a variant breaks
// every switch that does not handle it.
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

var ErrMissing = errors.New("no authenticated actor")

type Actor interface {
	UserID() uuid.UUID
	Role() user.Role
	sealed()
}

type Provider struct{ ID uuid.UUID }

type Purchaser struct{ ID uuid.UUID }

type Admin struct{ ID uuid.UUID }

func (a Provider) UserID() uuid.UUID  { return a.ID }
func (a Purchaser) UserID() uuid.UUID { return a.ID }
func (a Admin) UserID() uuid.UUID     { return a.ID }

func (Provider) Role() user.Role  { return user.RoleProvider }
func (Purchaser) Role() user.Role { return user.RolePurchaser }
func (Admin) Role() user.Role     { return user.RoleAdmin }

func (Provider) sealed()  {}
func (Purchaser) sealed() {}
func (Admin) sealed()     {}

// FromRole builds the variant for a stored role.
func FromRole(role user.Role, id uuid.UUID) (Actor, error) {
	switch role {
	case user.RoleProvider:
		return Provider{ID: id}, nil
	case user.RolePurchaser:
		return Purchaser{ID: id}, nil
	case user.RoleAdmin:
		return Admin{ID: id}, nil
	}

	return nil, fmt.Errorf("unknown role %q", role)
}

type contextKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	if !ok || a == nil {
		return nil, ErrMissing
	}

	return a, nil
}
