// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log" // Standard log for messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/platform/database"
	"garment_portal_gateway/internal/platform/logger"
	"garment_portal_gateway/internal/user"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "create-user" {
		if err := createUser(os.Args[2:]); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}

// createUser seeds an account in the user directory.
func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "Email address of the account")
	password := fs.String("password", "", "Initial password (8 to 72 characters)")
	name := fs.String("name", "", "Display name")
	role := fs.String("role", "buyer", "Role: admin, manager or buyer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := user.CreateUserRequest{Email: *email, Password: *password, DisplayName: *name, Role: *role}
	validate := validator.New()
	validate.SetTagName("binding")
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.UsesDirectory() {
		return fmt.Errorf("user directory is not configured; set IDENTITY_SOURCE, ROLE_SOURCE or PROFILE_SOURCE to %q", config.SourceDirectory)
	}

	appLogger, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	db, closeDB, err := database.NewGORM(cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := provideUserService(db, appLogger)
	if err != nil {
		return err
	}

	u, err := users.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	appLogger.Info("User created", zap.String("id", u.ID.String()), zap.String("email", u.Email), zap.String("role", u.Role))
	return nil
}
