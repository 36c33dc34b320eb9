package cli

import (
	"github.com/spf13/cobra"

	"qnadonate/src/app/server"
	"qnadonate/src/infra/clock"
	"qnadonate/src/infra/config"
	"qnadonate/src/infra/logger"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
		"store_backend", cfg.Store.Backend,
		"id_scheme", cfg.Store.IDScheme,
	)

	ctx := cmd.Context()
	st, err := OpenStore(ctx, cfg, log, cfg.Store.MigrateOnStart)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(cfg, log, st.Store, clock.New(cfg.Store.TruncateCreatedAt))
	return srv.Run(ctx)
}
