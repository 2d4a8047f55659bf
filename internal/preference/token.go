package preference

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/craftfair/dispatch/internal/template"
)

// UnsubscribeClaims identify the recipient and category an unsubscribe
// token applies to.
type UnsubscribeClaims struct {
	RecipientType string `json:"rt"`
	Recipient     string `json:"rcpt"`
	Category      string `json:"cat"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies one-click unsubscribe tokens embedded in
// outbound messages. Tokens are HMAC-signed so the unsubscribe endpoint can
// trust the recipient identity without a lookup.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
	baseURL    string
}

// NewTokenIssuer creates a TokenIssuer. baseURL is the public URL of the
// unsubscribe endpoint; ttl bounds how long emailed links stay valid.
func NewTokenIssuer(signingKey string, baseURL string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &TokenIssuer{signingKey: []byte(signingKey), ttl: ttl, baseURL: baseURL}
}

// Issue creates a signed unsubscribe token for the recipient and category.
func (i *TokenIssuer) Issue(recipientType, recipient string, category template.Category) (string, error) {
	now := time.Now()
	claims := UnsubscribeClaims{
		RecipientType: recipientType,
		Recipient:     recipient,
		Category:      string(category),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("preference: sign unsubscribe token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (i *TokenIssuer) Parse(tokenString string) (*UnsubscribeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UnsubscribeClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("preference: parse unsubscribe token: %w", err)
	}

	claims, ok := token.Claims.(*UnsubscribeClaims)
	if !ok || !token.Valid {
		return nil, errors.New("preference: invalid unsubscribe token")
	}
	return claims, nil
}

// LinkFor returns the full unsubscribe URL for the recipient and category,
// or an empty string when no base URL is configured.
func (i *TokenIssuer) LinkFor(recipientType, recipient string, category template.Category) string {
	if i.baseURL == "" {
		return ""
	}
	token, err := i.Issue(recipientType, recipient, category)
	if err != nil {
		return ""
	}
	return i.baseURL + "?token=" + url.QueryEscape(token)
}
