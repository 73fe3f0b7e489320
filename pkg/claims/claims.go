package claims

import jwt "github.com/dgrijalva/jwt-go"

type contextKey string

const (
	TokenContextKey contextKey = "token"

	RoleAdmin = "admin"
)

// Claims carry the operator identity in Subject.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
