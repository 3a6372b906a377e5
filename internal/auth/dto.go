package auth

import (
	"github.com/sliceline/pizzeria-backend/internal/users"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"required,max=30"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// VerifyOTPInput confirms a pending registration.
type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=4,max=10"`
}

// ResendOTPInput requests a fresh verification code.
type ResendOTPInput struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput rotates a session.
type RefreshInput struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is an issued session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterResponse is returned after signup, before verification.
type RegisterResponse struct {
	User *users.Response `json:"user"`
}

// SessionResponse is returned after a successful verify or login.
type SessionResponse struct {
	User   *users.Response `json:"user"`
	Tokens TokenPair       `json:"tokens"`
}
