// Command reset-password restores the primary administrator's configured password
// and ends their current session.
package main

import (
	"context"
	"flag"
	"time"

	"go-stock-tracker/internal/config"
	"go-stock-tracker/internal/logger"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	email := flag.String("email", cfg.PrimaryAdmin.Email, "account to reset")
	password := flag.String("password", cfg.PrimaryAdmin.Password, "new password")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatal("failed to hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		log.Fatal("failed to update password", zap.Error(err))
	}
	// A new token version logs out any session signed with the old password.
	if err := users.UpdateSession(ctx, user.ID, uuid.NewString(), time.Now()); err != nil {
		log.Fatal("failed to reset session", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email))
}
