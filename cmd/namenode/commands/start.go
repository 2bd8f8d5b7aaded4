package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode"
	"github.com/Lovepreet67/whispering-woods/pkg/config"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the namenode",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadNamenode(cfgFile)
		if err != nil {
			return err
		}
		if err := logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		}); err != nil {
			return err
		}

		srv, err := namenode.NewServer(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger.Info("starting namenode", "id", cfg.ID)
		return srv.Run(ctx)
	},
}
