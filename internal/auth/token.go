package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

// AccessClaims holds the claims embedded in an access token. Only the
// primary role travels in the token: auxiliary roles are looked up fresh by
// the authorization layer, so a stale claim can never widen access.
type AccessClaims struct {
	jwt.RegisteredClaims
	CompanyID int64  `json:"cid"`
	Role      string `json:"role"`
	Email     string `json:"email"`
}

// IssueAccessToken creates a signed HS256 access token for the user.
func IssueAccessToken(secret []byte, u *User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CompanyID: u.CompanyID,
		Role:      string(u.Role),
		Email:     u.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates an HS256 access token and returns the identity
// it encodes. Wrong algorithm, missing expiry, or expiry in the past all
// fail.
func ParseAccessToken(tokenStr string, secret []byte) (*authz.Identity, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: parse access token: %w", err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth: token subject: %w", err)
	}
	return &authz.Identity{
		UserID:    userID,
		Email:     claims.Email,
		CompanyID: claims.CompanyID,
		Role:      authz.Role(claims.Role),
		IsActive:  true,
	}, nil
}
