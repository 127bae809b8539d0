// Package auth issues and verifies the login tokens of the example.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-extras/go-kit/must"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mickamy/elucify/example/basic/model"
)

// ErrInvalidToken is returned for tokens that fail to parse or verify.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrPasswordTooLong is returned by HashPassword for passwords longer than
// MaxPasswordLength bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   int32  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret. Tokens expire after ttl.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is empty")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue creates a signed token for u.
func (i *Issuer) Issue(u model.User) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return token, nil
}

// Parse verifies token and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and passes the
// claims down via the context.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenStr == "" {
			http.Error(w, "Missing auth token", http.StatusUnauthorized)
			return
		}
		claims, err := i.Parse(tokenStr)
		if err != nil {
			http.Error(w, "Invalid auth token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, claims)))
	})
}

// ClaimsFrom returns the claims stored by Middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var decoyHash = sync.OnceValue(func() []byte {
	return must.Must(bcrypt.GenerateFromPassword([]byte("decoy"), bcrypt.DefaultCost))
})

// CheckMissing spends as long as CheckPassword would and reports false. Call
// it when no user matches, so response times do not reveal registered emails.
func CheckMissing(password string) bool {
	_ = bcrypt.CompareHashAndPassword(decoyHash(), []byte(password))
	return false
}
