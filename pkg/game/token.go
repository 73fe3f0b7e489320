package game

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"chessd/pkg/generator"
)

type TokenIssuer struct {
	cost int
}

// NewTokenIssuer uses bcrypt.DefaultCost when cost is out of range.
func NewTokenIssuer(cost int) *TokenIssuer {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &TokenIssuer{cost: cost}
}

// Issue returns a fresh bearer token and the digest to persist in its place.
func (ti *TokenIssuer) Issue() (token, hash string, err error) {
	token, err = generator.Token(generator.TokenByteCount)
	if err != nil {
		return "", "", fmt.Errorf("token gen error: %w", err)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(token), ti.cost)
	if err != nil {
		return "", "", fmt.Errorf("hashing token error: %w", err)
	}

	return token, string(digest), nil
}

func (ti *TokenIssuer) Verify(hash, presented string) bool {
	if hash == "" || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}
