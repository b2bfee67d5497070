package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/herald/internal/app"
	"github.com/MrSnakeDoc/herald/internal/config"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the delivery daemon",
		Long:  "Run the daemon. Configuration comes from HERALD_* environment variables and an optional env file.",
		RunE:  runServe,
	}

	cmd.Flags().String("env-file", "", "Env file merged before loading (default: $HERALD_ENV_FILE or .env)")
	cmd.Flags().String("listen", "", "Listen address, overrides HERALD_LISTEN_PORT")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		_ = os.Setenv("HERALD_ENV_FILE", envFile)
	}

	cfg := config.Load()
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.ListenPort = listen
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", logger.Error(err))
		return err
	}
	return a.Run(ctx)
}
