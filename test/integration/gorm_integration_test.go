package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.BotRepository())
	assert.NotNil(t, uow.WidgetTokenRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Chat Session Repository", func(t *testing.T) {
		count, err := uow.ChatSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("ChatSession count: %d", count)
	})

	t.Run("Check Transactional Widget Token Issue", func(t *testing.T) {
		// A widget token row needs the full ownership chain: user,
		// workspace, bot. Create them outside the transaction under test.
		userId := uuid.New()
		user := &entity.User{
			Id:           userId,
			Username:     "integration-" + uuid.New().String(),
			PasswordHash: "not-a-real-hash",
			Status:       entity.UserStatusActive,
		}
		err := uow.UserRepository().Create(context.Background(), user)
		assert.NoError(t, err)

		wsId := uuid.New()
		ws := &entity.Workspace{
			Id:   wsId,
			Name: "Integration Workspace",
		}
		err = uow.BotRepository().CreateWorkspace(context.Background(), ws)
		assert.NoError(t, err)

		botId := uuid.New()
		bot := &entity.Bot{
			Id:          botId,
			OwnerId:     userId,
			WorkspaceId: wsId,
			Name:        "Integration Bot",
			IsActive:    true,
		}
		err = uow.BotRepository().Create(context.Background(), bot)
		assert.NoError(t, err)

		// Transaction Test: retire any live token, then issue a new one
		ctx := context.Background()
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		_, err = uow.WidgetTokenRepository().DeactivateAllForBot(ctx, botId)
		assert.NoError(t, err)

		row := &entity.WidgetToken{
			Id:        uuid.New(),
			BotId:     botId,
			OwnerId:   userId,
			TokenHash: "integration-hash-" + uuid.New().String(),
			ExpiresAt: time.Now().Add(time.Hour),
			IsActive:  true,
		}
		err = uow.WidgetTokenRepository().Create(ctx, row)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully issued Widget Token in Transaction")
	})

	t.Run("Check Renewal Token Single Winner", func(t *testing.T) {
		ctx := context.Background()
		userId := uuid.New()
		user := &entity.User{
			Id:           userId,
			Username:     "integration-cas-" + uuid.New().String(),
			PasswordHash: "not-a-real-hash",
			Status:       entity.UserStatusActive,
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		hash := "integration-renewal-" + uuid.New().String()
		err = uow.UserRepository().CreateRenewalToken(ctx, &entity.RenewalToken{
			Id:        uuid.New(),
			UserId:    userId,
			TokenHash: hash,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		assert.NoError(t, err)

		won, err := uow.UserRepository().RevokeRenewalToken(ctx, hash)
		assert.NoError(t, err)
		assert.True(t, won, "first revoke should win")

		won, err = uow.UserRepository().RevokeRenewalToken(ctx, hash)
		assert.NoError(t, err)
		assert.False(t, won, "second revoke must lose")

		row, err := uow.UserRepository().FindRenewalToken(ctx, specification.ByTokenHash{Hash: hash})
		assert.NoError(t, err)
		if assert.NotNil(t, row) {
			assert.True(t, row.Revoked)
		}
	})
}
