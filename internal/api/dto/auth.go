package dto

import (
	"strings"

	"github.com/hugh/go-contacts/internal/api/validation"
	"github.com/hugh/go-contacts/internal/database/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() map[string]string {
	errors := validation.Errors{}

	email := strings.TrimSpace(r.Email)
	if errors.Required("email", email, "Email is required") {
		if !validation.IsValidEmail(email) {
			errors["email"] = "Invalid email format"
		} else {
			errors.Length("email", email, 100, "Email must be at most 100 characters")
		}
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if len(r.Password) > 72 {
		errors["password"] = "Password must be at most 72 bytes"
	}

	return errors
}

// LoginRequest carries OAuth2 password-grant credentials. The username is
// the account email; JSON clients may send it as "email" instead.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Login() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Login()) == "" {
		errors["username"] = "Username is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	IsVerified bool    `json:"is_verified"`
	Avatar     *string `json:"avatar"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Avatar:     u.Avatar,
	}
}

type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}
