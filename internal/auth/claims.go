package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the claim set embedded in every access token.
type Claims struct {
	Username     string   `json:"username"`
	TokenVersion string   `json:"token_version"`
	Roles        []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// BuildClaims assembles the claim set for one issuance. The jti is the only
// non-deterministic part; everything else comes from the user snapshot.
// An empty id or username is a programming error upstream.
func BuildClaims(id, username string, tokenVersion int, roles []string) (*Claims, error) {
	if id == "" {
		return nil, fmt.Errorf("claims: empty user id")
	}
	if username == "" {
		return nil, fmt.Errorf("claims: empty username")
	}
	return &Claims{
		Username:     username,
		TokenVersion: strconv.Itoa(tokenVersion),
		Roles:        roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id,
			ID:      uuid.NewString(),
		},
	}, nil
}
