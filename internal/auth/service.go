package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type Service struct {
	tokens    *TokenService
	blacklist *Blacklist
}

func NewService(tokens *TokenService, blacklist *Blacklist) *Service {
	return &Service{tokens: tokens, blacklist: blacklist}
}

func (s *Service) Issue(u *user.User) (*Token, error) {
	return s.tokens.Issue(u)
}

// Verify parses a bearer token and rejects revoked ones.
func (s *Service) Verify(ctx context.Context, raw string) (actor.Actor, *Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}

	if !revoked && claims.IssuedAt != nil {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.Subject, claims.IssuedAt.Time)
		if err != nil {
			return nil, nil, err
		}
	}

	if revoked {
		return nil, nil, ErrRevokedToken
	}

	a, err := claims.Actor()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return a, claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	return s.blacklist.Revoke(ctx, claims.ID, claims.Remaining(s.tokens.now()))
}

// RevokeUser signs the user out everywhere, e.g. after deactivation.
func (s *Service) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	return s.blacklist.RevokeUser(ctx, userID.String(), s.tokens.now(), s.tokens.ttl)
}
