package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a tutor account allowed to export and upload status files.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Login        string    `db:"login" json:"login"`
	FullName     string    `db:"full_name" json:"fullName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// JWTClaims carries the authenticated tutor identity.
type JWTClaims struct {
	UserID   int64  `json:"userId"`
	Login    string `json:"login"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	IssuedAt    time.Time `json:"issuedAt"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public view of a tutor account.
type UserInfo struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"fullName"`
}
