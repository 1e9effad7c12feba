package token

import (
	"testing"
	"time"

	"aidly-widget-be/internal/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestManager(identityTTL, widgetTTL time.Duration) *Manager {
	return NewManager("test-secret", identityTTL, widgetTTL)
}

func TestIdentityTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, time.Hour)
	userId := uuid.New()

	signed, expiresAt, err := m.IssueIdentity(userId)
	assert.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := m.Verify(signed, KindIdentity)
	assert.NoError(t, err)
	assert.Equal(t, KindIdentity, claims.Kind)

	got, err := claims.SubjectId()
	assert.NoError(t, err)
	assert.Equal(t, userId, got)
}

func TestWidgetTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, time.Hour)
	botId := uuid.New()
	ownerId := uuid.New()

	signed, _, err := m.IssueWidget(botId, ownerId)
	assert.NoError(t, err)

	claims, err := m.Verify(signed, KindWidget)
	assert.NoError(t, err)
	assert.Equal(t, KindWidget, claims.Kind)
	assert.Equal(t, botId, *claims.Bot)
	assert.Equal(t, ownerId, *claims.Owner)
}

func TestVerifyKindMismatch(t *testing.T) {
	m := newTestManager(time.Hour, time.Hour)

	identity, _, err := m.IssueIdentity(uuid.New())
	assert.NoError(t, err)
	widget, _, err := m.IssueWidget(uuid.New(), uuid.New())
	assert.NoError(t, err)

	_, err = m.Verify(identity, KindWidget)
	assert.ErrorIs(t, err, apperr.ErrTokenKindMismatch)

	_, err = m.Verify(widget, KindIdentity)
	assert.ErrorIs(t, err, apperr.ErrTokenKindMismatch)
}

func TestVerifyExpired(t *testing.T) {
	m := newTestManager(-time.Minute, -time.Minute)

	signed, _, err := m.IssueIdentity(uuid.New())
	assert.NoError(t, err)

	_, err = m.Verify(signed, KindIdentity)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestVerifyMalformed(t *testing.T) {
	m := newTestManager(time.Hour, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token, KindIdentity)
			assert.ErrorIs(t, err, apperr.ErrTokenMalformed)
		})
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := newTestManager(time.Hour, time.Hour)
	other := NewManager("other-secret", time.Hour, time.Hour)

	signed, _, err := m.IssueIdentity(uuid.New())
	assert.NoError(t, err)

	_, err = other.Verify(signed, KindIdentity)
	assert.ErrorIs(t, err, apperr.ErrTokenMalformed)
}

func TestVerifyAllowExpiredWithinGrace(t *testing.T) {
	m := newTestManager(time.Hour, -time.Minute)
	botId := uuid.New()
	ownerId := uuid.New()

	signed, _, err := m.IssueWidget(botId, ownerId)
	assert.NoError(t, err)

	// Strict verification rejects the expired token.
	_, err = m.Verify(signed, KindWidget)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)

	// A generous grace window accepts it.
	claims, err := m.VerifyAllowExpired(signed, KindWidget, time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, botId, *claims.Bot)

	// A grace window shorter than the overrun does not.
	_, err = m.VerifyAllowExpired(signed, KindWidget, time.Second)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestVerifyAllowExpiredStillChecksKind(t *testing.T) {
	m := newTestManager(-time.Minute, time.Hour)

	signed, _, err := m.IssueIdentity(uuid.New())
	assert.NoError(t, err)

	_, err = m.VerifyAllowExpired(signed, KindWidget, time.Hour)
	assert.ErrorIs(t, err, apperr.ErrTokenKindMismatch)
}

func TestNewRenewalSecret(t *testing.T) {
	m := newTestManager(time.Hour, time.Hour)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s, err := m.NewRenewalSecret()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(s), 40)
		assert.False(t, seen[s], "renewal secrets must not repeat")
		seen[s] = true
	}
}

func TestHashSecret(t *testing.T) {
	h1 := HashSecret("secret-a")
	h2 := HashSecret("secret-a")
	h3 := HashSecret("secret-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestNewSessionHandle(t *testing.T) {
	h, err := NewSessionHandle("sess_")
	assert.NoError(t, err)
	assert.Contains(t, h, "sess_")

	h2, err := NewSessionHandle("sess_")
	assert.NoError(t, err)
	assert.NotEqual(t, h, h2)
}
