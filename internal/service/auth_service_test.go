package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aidly-widget-be/internal/apperr"
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/pkg/token"
	"aidly-widget-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (IAuthService, *fakeStore, *fakeAudit) {
	t.Helper()
	store := newFakeStore()
	audit := &fakeAudit{}
	tokens := token.NewManager("test-secret-please-change", 15*time.Minute, 7*24*time.Hour)
	svc := NewAuthService(&fakeFactory{store: store}, tokens, 30*24*time.Hour, &fakeMailer{}, audit, nil)
	return svc, store, audit
}

func registerAndLogin(t *testing.T, svc IAuthService, username string) *dto.TokenPairResponse {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: username, Password: "correct-horse"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, &dto.LoginRequest{Username: username, Password: "correct-horse"}, "203.0.113.9", "go-test")
	require.NoError(t, err)
	return pair
}

func TestLoginIssuesPair(t *testing.T) {
	svc, _, audit := newAuthFixture(t)
	pair := registerAndLogin(t, svc, "alice")

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RenewalToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RenewalToken)
	assert.Contains(t, audit.typesSeen(), events.TypeUserLogin)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "bob", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "bob", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "whatever"}, "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()
	registerAndLogin(t, svc, "carol")

	for _, u := range store.users {
		u.Status = entity.UserStatusDisabled
	}

	_, err := svc.Login(ctx, &dto.LoginRequest{Username: "carol", Password: "correct-horse"}, "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRenewRotatesSecret(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	pair := registerAndLogin(t, svc, "alice")

	second, err := svc.Renew(ctx, pair.RenewalToken, "203.0.113.9", "go-test")
	require.NoError(t, err)
	assert.NotEqual(t, pair.RenewalToken, second.RenewalToken)
	assert.NotEmpty(t, second.AccessToken)

	// The first secret is spent; presenting it again is a replay.
	_, err = svc.Renew(ctx, pair.RenewalToken, "203.0.113.9", "go-test")
	assert.ErrorIs(t, err, apperr.ErrRenewalRevoked)
}

func TestRenewReplayRevokesLineage(t *testing.T) {
	svc, _, audit := newAuthFixture(t)
	ctx := context.Background()
	pair := registerAndLogin(t, svc, "alice")

	second, err := svc.Renew(ctx, pair.RenewalToken, "", "")
	require.NoError(t, err)

	// Replay of the spent secret kills the whole lineage,
	// including the freshly rotated successor.
	_, err = svc.Renew(ctx, pair.RenewalToken, "", "")
	require.ErrorIs(t, err, apperr.ErrRenewalRevoked)
	assert.Contains(t, audit.typesSeen(), events.TypeRenewalReplayed)

	_, err = svc.Renew(ctx, second.RenewalToken, "", "")
	assert.ErrorIs(t, err, apperr.ErrRenewalRevoked)
}

func TestRenewUnknownSecret(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Renew(context.Background(), "never-issued", "", "")
	assert.ErrorIs(t, err, apperr.ErrRenewalInvalid)
}

func TestRenewExpiredSecret(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()
	pair := registerAndLogin(t, svc, "alice")

	store.mu.Lock()
	for _, r := range store.renewals {
		r.ExpiresAt = time.Now().Add(-time.Minute)
	}
	store.mu.Unlock()

	_, err := svc.Renew(ctx, pair.RenewalToken, "", "")
	assert.ErrorIs(t, err, apperr.ErrRenewalExpired)
}

func TestConcurrentRenewSingleWinner(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	pair := registerAndLogin(t, svc, "alice")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Renew(ctx, pair.RenewalToken, "", "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, apperr.ErrRenewalRevoked) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one rotation must win")
}

func TestLogoutAllInvalidatesEverySecret(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()

	// Two independent logins, then a rotation chain on the first.
	pair1 := registerAndLogin(t, svc, "alice")
	pair2, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "correct-horse"}, "", "")
	require.NoError(t, err)
	rotated, err := svc.Renew(ctx, pair1.RenewalToken, "", "")
	require.NoError(t, err)

	userId := store.renewals[0].UserId
	count, err := svc.LogoutAll(ctx, userId)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(2))

	for _, secret := range []string{rotated.RenewalToken, pair2.RenewalToken} {
		_, err = svc.Renew(ctx, secret, "", "")
		assert.ErrorIs(t, err, apperr.ErrRenewalRevoked, "secret must be dead after logoutAll")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	pair := registerAndLogin(t, svc, "alice")

	require.NoError(t, svc.Logout(ctx, pair.RenewalToken))
	require.NoError(t, svc.Logout(ctx, pair.RenewalToken))
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, err := svc.Renew(ctx, pair.RenewalToken, "", "")
	assert.ErrorIs(t, err, apperr.ErrRenewalRevoked)
}

func TestActiveSessionsSkipsExpired(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()
	registerAndLogin(t, svc, "alice")
	userId := store.renewals[0].UserId

	sessions, err := svc.ActiveSessions(ctx, userId)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	store.mu.Lock()
	store.renewals[0].ExpiresAt = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	sessions, err = svc.ActiveSessions(ctx, userId)
	require.NoError(t, err)
	assert.Len(t, sessions, 0)
}
