package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      user.Role   `json:"role"`
	Status    user.Status `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

type sessionResponse struct {
	User  UserResponse `json:"user"`
	Token *auth.Token  `json:"token"`
}

func ToUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []*user.User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = ToUserResponse(u)
	}

	return resp
}
