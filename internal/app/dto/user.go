package dto

import (
	"time"

	domainuser "stayhub/internal/domain/user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

func MapUserProfile(account *domainuser.User) UserProfile {
	if account == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:        string(account.ID),
		Email:     account.Email,
		Name:      account.Name,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

func NewAuthResponse(account *domainuser.User, token string) AuthResponse {
	return AuthResponse{
		User:  MapUserProfile(account),
		Token: token,
	}
}
