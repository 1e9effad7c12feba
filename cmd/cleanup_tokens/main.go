package main

import (
	"context"
	"log"
	"os"
	"time"

	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const (
	// revoked renewal secrets are kept around for a week so replay
	// attempts stay detectable before the rows disappear
	revokedRetention = 7 * 24 * time.Hour

	// newest active renewal secrets preserved per user
	keepPerUser = 2
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uow := unitofwork.NewUnitOfWork(db)
	users := uow.UserRepository()
	widgetTokens := uow.WidgetTokenRepository()

	color.Cyan("🧹 Token Cleanup\n")
	now := time.Now()
	var total int64

	color.Yellow("\n[1] Expired renewal secrets")
	deleted, err := users.DeleteRenewalTokens(ctx, specification.ExpiresBefore{At: now})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Deleted: %d", deleted)
	total += deleted

	color.Yellow("\n[2] Revoked renewal secrets older than %s", revokedRetention)
	deleted, err = users.DeleteInactiveRenewalTokens(ctx, now.Add(-revokedRetention))
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Deleted: %d", deleted)
	total += deleted

	color.Yellow("\n[3] Surplus active renewal secrets (keep %d newest per user)", keepPerUser)
	userIds, err := users.ListUserIdsWithRenewalTokens(ctx)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	var surplus int64
	for _, userId := range userIds {
		n, err := users.DeleteRenewalTokensOlderThanNth(ctx, userId, keepPerUser)
		if err != nil {
			color.Red("Failed for user %s: %v", userId, err)
			os.Exit(1)
		}
		surplus += n
	}
	color.Green("Deleted: %d (across %d users)", surplus, len(userIds))
	total += surplus

	color.Yellow("\n[4] Expired widget tokens")
	deleted, err = widgetTokens.DeleteTokens(ctx, specification.ExpiresBefore{At: now})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Deleted: %d", deleted)
	total += deleted

	color.Cyan("\n✅ Cleanup complete, %d rows removed", total)
}
