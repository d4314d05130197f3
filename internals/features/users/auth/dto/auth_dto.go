package dto

import (
	"strings"
	"time"

	"coursereg_backend/internals/features/users/model"
)

type RegisterRequest struct {
	UserName  string `json:"user_name"  validate:"required,min=3,max=120"`
	UserEmail string `json:"user_email" validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
	// kosong = student; admin tidak bisa daftar sendiri
	Role string `json:"role" validate:"omitempty,oneof=student teacher"`
}

func (r *RegisterRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.UserEmail = strings.ToLower(strings.TrimSpace(r.UserEmail))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

type LoginRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	Password  string `json:"password"   validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.UserEmail = strings.ToLower(strings.TrimSpace(r.UserEmail))
}

type UserResponse struct {
	UserID       uint      `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	UserIsActive bool      `json:"user_is_active"`
	UserRoles    []string  `json:"user_roles"`
	CreatedAt    time.Time `json:"user_created_at"`
}

func NewUserResponse(m *model.UserModel) UserResponse {
	roles := []string(m.UserRoles)
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		UserID:       m.UserID,
		UserName:     m.UserName,
		UserEmail:    m.UserEmail,
		UserIsActive: m.UserIsActive,
		UserRoles:    roles,
		CreatedAt:    m.UserCreatedAt,
	}
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}
