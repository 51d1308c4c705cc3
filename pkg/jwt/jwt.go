package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

const issuer = "go-stock-tracker"

// Claims represents the JWT claims structure
type Claims struct {
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	RoleCode       string    `json:"role_code"`
	IsPrimaryAdmin bool      `json:"is_primary_admin"`
	Privileges     []string  `json:"privileges"`
	TokenVersion   string    `json:"token_version"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with one HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Subject is the identity baked into a token
type Subject struct {
	UserID         uuid.UUID
	Email          string
	Name           string
	RoleCode       string
	IsPrimaryAdmin bool
	Privileges     []string
	TokenVersion   string
}

// GenerateToken creates a new signed token for a user
func (m *Manager) GenerateToken(s Subject) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:         s.UserID,
		Email:          s.Email,
		Name:           s.Name,
		RoleCode:       s.RoleCode,
		IsPrimaryAdmin: s.IsPrimaryAdmin,
		Privileges:     s.Privileges,
		TokenVersion:   s.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT token
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
