package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/foliodev/folio/internal/model"
)

// SessionCookie carries the session token in browser requests.
const SessionCookie = "auth_token"

// TokenIssuer is the iss claim of every session token.
const TokenIssuer = "folio"

// DefaultTokenTTL is how long a session token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed token, unexpected algorithm, wrong issuer or expiry.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNoSecret is returned when tokens are requested without a key.
	ErrNoSecret = errors.New("jwt secret not configured")
)

// Identity is the verified content of a session token.
type Identity struct {
	AccountID string
	Username  string
	ExpiresAt time.Time
}

// AuthService issues and verifies stateless session tokens.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates an AuthService signing with secret. A non-positive
// ttl selects DefaultTokenTTL.
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *AuthService) TTL() time.Duration { return s.ttl }

// IssueToken signs a token for a and returns it with its expiry.
func (s *AuthService) IssueToken(a *model.Account) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		Username: a.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken validates tokenStr and returns its identity. It fails closed:
// any problem yields ErrInvalidToken.
func (s *AuthService) VerifyToken(tokenStr string) (*Identity, error) {
	if len(s.secret) == 0 || tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	id := &Identity{AccountID: claims.Subject, Username: claims.Username}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes
// never match.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
