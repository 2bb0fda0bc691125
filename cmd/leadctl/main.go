package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traddy-backend-go/internal/config"
	"traddy-backend-go/internal/db"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operator tooling for the lead marketplace",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Overall command timeout")

	rootCmd.AddCommand(packsCmd())
	rootCmd.AddCommand(filesCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: a store on the configured backend.
type env struct {
	ctx    context.Context
	store  *db.Store
	logger *zap.Logger
	close  func()
}

func openEnv(cmd *cobra.Command) (*env, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)

	logger, err := zap.NewDevelopment()
	if err != nil {
		cancel()
		return nil, err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load config: %w", err)
	}

	var fb *db.FirebaseClients
	if cfg.DataBackend == config.BackendFirestore {
		if fb, err = db.InitFirebase(ctx, cfg, logger, true); err != nil {
			cancel()
			return nil, err
		}
	}
	store, closeStore, err := db.OpenStore(cfg, fb)
	if err != nil {
		_ = fb.Close()
		cancel()
		return nil, err
	}
	return &env{
		ctx:    ctx,
		store:  store,
		logger: logger,
		close: func() {
			_ = closeStore()
			_ = fb.Close()
			_ = logger.Sync()
			cancel()
		},
	}, nil
}
