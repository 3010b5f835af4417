package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive-backend/internal/domain"
)

// Claims is the signed claim set shared by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenPair is one access/refresh issuance.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
}

// TokenIssuer signs and verifies access and refresh tokens. The two kinds
// use separate secrets so a leaked refresh secret cannot mint access
// tokens and vice versa. Verification is pure; no I/O on the hot path.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// Issue signs a fresh access/refresh pair from the same claim set.
func (i *TokenIssuer) Issue(user *domain.User) (*TokenPair, error) {
	now := time.Now()

	accessToken, err := i.sign(user, now, i.accessTTL, i.accessSecret)
	if err != nil {
		return nil, err
	}

	refreshToken, err := i.sign(user, now, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    i.accessTTL,
	}, nil
}

func (i *TokenIssuer) sign(user *domain.User, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// Timestamps have second precision; the jti keeps two issuances
			// within the same second from minting identical tokens.
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccess validates an access token and returns its claims.
func (i *TokenIssuer) VerifyAccess(tokenString string) (*Claims, error) {
	return i.verify(tokenString, i.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (i *TokenIssuer) VerifyRefresh(tokenString string) (*Claims, error) {
	return i.verify(tokenString, i.refreshSecret)
}

func (i *TokenIssuer) verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	return claims, nil
}
