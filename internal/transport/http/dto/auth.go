package dto

import (
	"strings"
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// -------- requests --------

type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,max=1024"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenForm is the OAuth2 password-grant form; username carries the email.
type TokenForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (r *UpdateProfileRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// -------- responses --------

type UserView struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

type TokenData struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	UserID      int64    `json:"user_id"`
	User        UserView `json:"user"`
}

type MessageData struct {
	Message string `json:"message"`
}

type RegisterData struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
}

type RoleData struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
}
