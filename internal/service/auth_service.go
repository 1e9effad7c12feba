package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aidly-widget-be/internal/apperr"
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/pkg/mailer"
	"aidly-widget-be/internal/pkg/token"
	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/events"
	pktNats "aidly-widget-be/pkg/nats"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserProfileResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenPairResponse, error)
	Renew(ctx context.Context, renewalSecret, ipAddress, userAgent string) (*dto.TokenPairResponse, error)
	Logout(ctx context.Context, renewalSecret string) error
	LogoutAll(ctx context.Context, userId uuid.UUID) (int64, error)
	Profile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	ActiveSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ActiveSessionResponse, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	tokens         *token.Manager
	renewalTTL     time.Duration
	emailService   mailer.IEmailService
	audit          IAuditService
	eventPublisher *pktNats.Publisher
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokens *token.Manager,
	renewalTTL time.Duration,
	emailService mailer.IEmailService,
	audit IAuditService,
	eventPublisher *pktNats.Publisher,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		tokens:         tokens,
		renewalTTL:     renewalTTL,
		emailService:   emailService,
		audit:          audit,
		eventPublisher: eventPublisher,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if existing != nil {
		return nil, errors.New("username already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      false,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	s.audit.Record(ctx, events.New(events.TypeUserRegistered, map[string]interface{}{
		"user_id":  user.Id.String(),
		"username": user.Username,
	}))

	if email != nil {
		go func(to, name string) {
			if mailErr := s.emailService.SendWelcome(to, name); mailErr != nil {
				fmt.Printf("Error sending welcome email: %v\n", mailErr)
			}
		}(*email, user.Username)
	}

	return toUserProfile(user), nil
}

// Login verifies credentials, then issues the identity token and a fresh
// renewal secret as a pair. The two always travel together.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenPairResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if user == nil || user.Status != entity.UserStatusActive {
		// Unknown username and disabled account share one outcome.
		return nil, apperr.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, uow, user.Id, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, events.New(events.TypeUserLogin, map[string]interface{}{
		"user_id": user.Id.String(),
		"ip":      ipAddress,
	}))

	return pair, nil
}

// Renew rotates the presented renewal secret. Exactly one of two concurrent
// calls with the same secret succeeds; the loser sees the row already revoked.
func (s *authService) Renew(ctx context.Context, renewalSecret, ipAddress, userAgent string) (*dto.TokenPairResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	hash := token.HashSecret(renewalSecret)

	row, err := uow.UserRepository().FindRenewalToken(ctx, specification.ByTokenHash{Hash: hash})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if row == nil {
		return nil, apperr.ErrRenewalInvalid
	}
	if row.Revoked {
		// A rotated secret presented again is the replay signal. Kill every
		// session in the lineage and tell the owner.
		s.onRenewalReplay(ctx, row, ipAddress)
		return nil, apperr.ErrRenewalRevoked
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, apperr.ErrRenewalExpired
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	defer uow.Rollback()

	won, err := uow.UserRepository().RevokeRenewalToken(ctx, hash)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if !won {
		// Lost the race: someone rotated this secret between our read and
		// our update. Treat like any other revoked presentation.
		return nil, apperr.ErrRenewalRevoked
	}

	secret, err := s.tokens.NewRenewalSecret()
	if err != nil {
		return nil, err
	}

	successor := &entity.RenewalToken{
		Id:        uuid.New(),
		UserId:    row.UserId,
		TokenHash: token.HashSecret(secret),
		ExpiresAt: time.Now().Add(s.renewalTTL),
		Revoked:   false,
		CreatedAt: time.Now(),
		IpAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := uow.UserRepository().CreateRenewalToken(ctx, successor); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	if err := uow.Commit(); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	identityToken, expiresAt, err := s.tokens.IssueIdentity(row.UserId)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, events.New(events.TypeTokenRenewed, map[string]interface{}{
		"user_id": row.UserId.String(),
		"ip":      ipAddress,
	}))

	return &dto.TokenPairResponse{
		AccessToken:  identityToken,
		RenewalToken: secret,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// Logout deactivates just the presented renewal row. Idempotent: revoking an
// already-revoked or unknown secret still reports success.
func (s *authService) Logout(ctx context.Context, renewalSecret string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	_, err := uow.UserRepository().RevokeRenewalToken(ctx, token.HashSecret(renewalSecret))
	if err != nil {
		return apperr.ErrStoreUnavailable
	}
	return nil
}

// LogoutAll revokes every active renewal secret the user holds, including ones
// issued before any rotation chain.
func (s *authService) LogoutAll(ctx context.Context, userId uuid.UUID) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.UserRepository().RevokeAllRenewalTokens(ctx, userId)
	if err != nil {
		return 0, apperr.ErrStoreUnavailable
	}

	s.audit.Record(ctx, events.New(events.TypeLogoutAll, map[string]interface{}{
		"user_id": userId.String(),
		"revoked": count,
	}))

	return count, nil
}

func (s *authService) Profile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return toUserProfile(user), nil
}

func (s *authService) ActiveSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ActiveSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.UserRepository().FindRenewalTokens(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.ActiveRenewals{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	out := make([]*dto.ActiveSessionResponse, 0, len(rows))
	for _, row := range rows {
		if time.Now().After(row.ExpiresAt) {
			continue
		}
		out = append(out, &dto.ActiveSessionResponse{
			Id:        row.Id,
			IpAddress: row.IpAddress,
			UserAgent: row.UserAgent,
			ExpiresAt: row.ExpiresAt,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// issuePair mints the identity token and persists a fresh renewal secret.
func (s *authService) issuePair(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, ipAddress, userAgent string) (*dto.TokenPairResponse, error) {
	identityToken, expiresAt, err := s.tokens.IssueIdentity(userId)
	if err != nil {
		return nil, err
	}

	secret, err := s.tokens.NewRenewalSecret()
	if err != nil {
		return nil, err
	}

	row := &entity.RenewalToken{
		Id:        uuid.New(),
		UserId:    userId,
		TokenHash: token.HashSecret(secret),
		ExpiresAt: time.Now().Add(s.renewalTTL),
		Revoked:   false,
		CreatedAt: time.Now(),
		IpAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := uow.UserRepository().CreateRenewalToken(ctx, row); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	return &dto.TokenPairResponse{
		AccessToken:  identityToken,
		RenewalToken: secret,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// onRenewalReplay handles a rotated secret presented a second time: revoke the
// whole lineage and alert the owner out of band.
func (s *authService) onRenewalReplay(ctx context.Context, row *entity.RenewalToken, ipAddress string) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	revoked, err := uow.UserRepository().RevokeAllRenewalTokens(ctx, row.UserId)
	if err != nil {
		fmt.Printf("Error revoking sessions after replay for %s: %v\n", row.UserId, err)
	}

	s.audit.Record(ctx, events.New(events.TypeRenewalReplayed, map[string]interface{}{
		"user_id": row.UserId.String(),
		"ip":      ipAddress,
		"revoked": revoked,
	}))
	if pubErr := s.eventPublisher.Publish(ctx, events.New(events.TypeRenewalReplayed, map[string]interface{}{
		"user_id": row.UserId.String(),
	})); pubErr != nil {
		fmt.Printf("Error publishing replay event: %v\n", pubErr)
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: row.UserId})
	if err != nil || user == nil || user.Email == nil {
		return
	}
	go func(to, name, ip string) {
		if mailErr := s.emailService.SendSecurityAlert(to, name, "Renewal secret replayed after rotation", ip); mailErr != nil {
			fmt.Printf("Error sending security alert: %v\n", mailErr)
		}
	}(*user.Email, user.Username, ipAddress)
}

func toUserProfile(user *entity.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		Id:        user.Id,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}
}
