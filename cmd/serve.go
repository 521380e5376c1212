package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findingthem/findingthem/internal/config"
	"github.com/findingthem/findingthem/internal/database/postgres"
	"github.com/findingthem/findingthem/internal/intake"
	"github.com/findingthem/findingthem/internal/matcher"
	"github.com/findingthem/findingthem/internal/storage"
	"github.com/findingthem/findingthem/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the FindingThem web server.
The server exposes the reporting API: account signup and login, report
submission with a photo, and retrieval of the ranked match results produced
by the external face-matching tool.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	photos, err := storage.NewPhotoStore(cfg.Upload.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	reportRepo := postgres.NewReportRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	fmt.Printf("Session persistence enabled (PostgreSQL)\n")

	invoker := matcher.NewInvoker(&cfg.Matcher)
	orchestrator := intake.NewOrchestrator(reportRepo, invoker, intake.NewResultHolder(), &cfg.Intake)

	port, host, sessionSecret := resolveServeHostPort(cmd)

	server := web.NewServer(port, host, sessionSecret, web.Deps{
		Accounts:     accountRepo,
		Reports:      reportRepo,
		Photos:       photos,
		Orchestrator: orchestrator,
		SessionRepo:  sessionRepo,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("Received signal %s, shutting down...\n", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
