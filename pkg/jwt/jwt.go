package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("token is missing")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the payload signed by the REST layer at login: {id, username}.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Options configures a Verifier.
type Options struct {
	Secret string
	// RequireExpiry rejects tokens without an exp claim. Tokens minted by
	// the REST layer historically carry no exp, so this is opt-in.
	RequireExpiry bool
	Issuer        string
}

// Verifier checks HS256 tokens issued by the REST layer. It never mints tokens.
type Verifier struct {
	key    []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier bound to a shared secret.
func NewVerifier(opts Options) (*Verifier, error) {
	if opts.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if opts.RequireExpiry {
		parserOpts = append(parserOpts, jwt.WithExpirationRequired())
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &Verifier{
		key:    []byte(opts.Secret),
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// ValidateToken verifies signature and expiry and returns the claims.
// A "Bearer " prefix is tolerated.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
