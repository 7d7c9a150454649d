package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer issues and verifies HS256 access tokens. The key is process-wide
// configuration and never rotates within a running process.
type Signer struct {
	key      []byte
	issuer   string
	audience string
	lifetime time.Duration
}

func NewSigner(key []byte, issuer, audience string, lifetime time.Duration) *Signer {
	return &Signer{key: key, issuer: issuer, audience: audience, lifetime: lifetime}
}

func (s *Signer) Lifetime() time.Duration { return s.lifetime }

// Issue signs the claim set and returns the encoded token with its absolute
// expiry.
func (s *Signer) Issue(claims *Claims) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.lifetime)

	claims.Issuer = s.issuer
	claims.Audience = jwt.ClaimStrings{s.audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(exp)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, issuer, audience and expiry. The three error
// kinds stay distinct for logging; the HTTP boundary collapses them to 401.
func (s *Signer) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.key, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}
	if !token.Valid {
		return nil, ErrMalformedToken
	}
	return &claims, nil
}
