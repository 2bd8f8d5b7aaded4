// Package commands implements the client CLI for whispering-woods.
package commands

import (
	"fmt"

	"github.com/Lovepreet67/whispering-woods/internal/client"
	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/config"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "wwctl",
	Short: "whispering-woods client",
	Long: `wwctl stores, fetches, and deletes files in a whispering-woods
cluster. Files are split into chunks, uploaded in parallel through the
replica pipelines, and reassembled on fetch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}
	return err
}

// newRunner loads the client config and wires the client core.
func newRunner() (*client.Runner, error) {
	cfg, err := config.LoadClient(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, err
	}
	decrypter, err := ticket.NewAESDecrypter(cfg.TicketKey)
	if err != nil {
		return nil, fmt.Errorf("loading ticket key: %w", err)
	}
	return client.NewRunner(
		client.NewNamenodeService(cfg.ClientID, cfg.NamenodeAddrs),
		client.NewDatanodeService(),
		decrypter,
	), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wwctl %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/client.yaml", "config file path (WW_CONFIG overrides)")
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)
}
