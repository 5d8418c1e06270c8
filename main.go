package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"articles-server/confs"
	"articles-server/db"
	"articles-server/repositories"
	"articles-server/server"
	"articles-server/services"
	"articles-server/usecases"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "articles-server",
		Short:         "Authenticated article manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update database tables",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "prune-sessions",
			Short: "Delete expired login sessions",
			RunE:  runPruneSessions,
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and connects to the database.
func bootstrap(autoMigrate bool) (*confs.Config, *zap.Logger, db.Database, error) {
	cfg, err := confs.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := confs.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = dbCfg.AutoMigrate || autoMigrate
	database, err := db.Connect(dbCfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, database, nil
}

// sessionStore picks the session backend named by SESSION_STORE.
func sessionStore(ctx context.Context, cfg *confs.Config, database db.Database, logger *zap.Logger) (repositories.SessionRepository, func(), error) {
	if cfg.Session.Store != "redis" {
		return repositories.NewSessionPgRepository(database), func() {}, nil
	}
	client, err := db.ConnectRedis(ctx, cfg.Session.RedisURL, logger)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewSessionRedisRepository(client), func() { _ = client.Close() }, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, database, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := sessionStore(ctx, cfg, database, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	srv, err := server.NewServer(cfg, database, logger, server.WithSessionStore(sessions))
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	_, logger, _, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	return nil
}

func runPruneSessions(cmd *cobra.Command, _ []string) error {
	cfg, logger, database, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	sessions, closeSessions, err := sessionStore(ctx, cfg, database, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	auth := usecases.NewAuthUseCase(
		repositories.NewUserPgRepository(database),
		sessions,
		services.NewBcryptHasher(cfg.PasswordCost),
		services.NewTokenCodec(cfg.Session.Secret),
		cfg.Session.Lifetime,
		cfg.Session.RememberLifetime,
	)

	n, err := auth.PruneSessions(ctx)
	if err != nil {
		return err
	}
	logger.Info("expired sessions pruned", zap.Int64("count", n))
	return nil
}
