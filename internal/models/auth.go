package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the marketplace roles carried in access tokens.
type UserRole string

const (
	RoleClient UserRole = "CLIENT"
	RoleArtist UserRole = "ARTIST"
	RoleAdmin  UserRole = "ADMIN"
)

// JWTClaims represents the payload of access tokens minted by the identity
// service. Only verification happens here.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}
