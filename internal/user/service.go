package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInactive = errors.New("account is inactive")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) ([]*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo       Repository
	bcryptCost int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost, mostly so tests stay fast.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

type ListFilter struct {
	Role   *Role
	Status *Status
}

type UpdateProfileParams struct {
	Name  string
	Email string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a provider or purchaser account. Admins are provisioned
// out of band and cannot sign up.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	switch params.Role {
	case RoleProvider, RolePurchaser:
	case RoleAdmin:
		return nil, fmt.Errorf("%w: admins cannot self-register", ErrForbidden)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, params.Role)
	}

	if strength := ScorePassword(params.Password); !strength.Valid {
		return nil, fmt.Errorf("%w (%s)", ErrWeakPassword, strength.Label)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Name:         strings.TrimSpace(params.Name),
		Email:        normalizeEmail(params.Email),
		Role:         params.Role,
		Status:       StatusActive,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive() {
		return nil, ErrInactive
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	return s.repo.ListUsers(ctx, filter)
}

// ListByRole returns active users with the given role, e.g. the purchasers a
// provider can bill.
func (s *Service) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	return s.repo.ListUsers(ctx, ListFilter{Role: &role, Status: new(StatusActive)})
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(params.Name); name != "" {
		u.Name = name
	}

	if email := normalizeEmail(params.Email); email != "" {
		u.Email = email
	}

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}
