package types

import "github.com/golang-jwt/jwt/v5"

// RoleModerator is the only role that may use the admin API
const RoleModerator = "moderator"

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
