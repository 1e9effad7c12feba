package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"aidly-widget-be/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindIdentity Kind = "identity"
	KindWidget   Kind = "widget"
)

// Claims is the payload embedded in signed tokens. Identity tokens carry
// Subject only; widget tokens carry Bot and Owner. Kind is checked exactly on
// every verification so a token from one domain can never drive the other.
type Claims struct {
	Kind  Kind       `json:"kind"`
	Bot   *uuid.UUID `json:"bot,omitempty"`
	Owner *uuid.UUID `json:"owner,omitempty"`
	jwt.RegisteredClaims
}

// SubjectId returns the platform user id embedded in an identity token.
func (c *Claims) SubjectId() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Manager issues and verifies signed tokens and mints opaque renewal secrets.
// It is pure: no I/O, no locking, safe for concurrent use on every request.
type Manager struct {
	secret      []byte
	identityTTL time.Duration
	widgetTTL   time.Duration
}

func NewManager(secret string, identityTTL, widgetTTL time.Duration) *Manager {
	return &Manager{
		secret:      []byte(secret),
		identityTTL: identityTTL,
		widgetTTL:   widgetTTL,
	}
}

func (m *Manager) sign(claims *Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// IssueIdentity mints a short-lived identity token for a platform user.
func (m *Manager) IssueIdentity(subjectId uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.identityTTL)
	signed, err := m.sign(&Claims{
		Kind: KindIdentity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectId.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueWidget mints a widget token scoping anonymous access to one bot.
func (m *Manager) IssueWidget(botId, ownerId uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.widgetTTL)
	signed, err := m.sign(&Claims{
		Kind:  KindWidget,
		Bot:   &botId,
		Owner: &ownerId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// NewRenewalSecret returns a high-entropy opaque string. It carries no claims
// on purpose: renewal secrets live long enough that they must be revocable,
// so they are always looked up by hash, never verified by signature.
func (m *Manager) NewRenewalSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks signature, expiry and kind. No database access.
func (m *Manager) Verify(tokenStr string, expected Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Expiry is only meaningful once the kind is known to match:
			// an expired token of the wrong kind is still a kind mismatch.
			if claims.Kind != "" && claims.Kind != expected {
				return nil, apperr.ErrTokenKindMismatch
			}
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenMalformed
	}
	if claims.Kind != expected {
		return nil, apperr.ErrTokenKindMismatch
	}
	return claims, nil
}

// VerifyAllowExpired accepts a token whose exp is past by at most the grace
// window. Signature and kind are still mandatory. Used by widget renew.
func (m *Manager) VerifyAllowExpired(tokenStr string, expected Kind, grace time.Duration) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, m.keyFunc)
	if err != nil || !token.Valid {
		return nil, apperr.ErrTokenMalformed
	}
	if claims.Kind != expected {
		return nil, apperr.ErrTokenKindMismatch
	}
	if claims.ExpiresAt == nil {
		return nil, apperr.ErrTokenMalformed
	}
	if time.Now().After(claims.ExpiresAt.Add(grace)) {
		return nil, apperr.ErrTokenExpired
	}
	return claims, nil
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	return m.secret, nil
}

// HashSecret is the one-way hash used before any secret touches storage.
func HashSecret(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NewSessionHandle returns an opaque chat-session handle.
func NewSessionHandle(prefix string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
