package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lovepreet67/whispering-woods/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil && !initForce {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", cfgFile)
		}
		cfg := &config.NamenodeConfig{
			ID:            "namenode-1",
			LedgerFile:    "data/namenode/ledger.log",
			APIJwtSignKey: "change-me",
			APIPassword:   "change-me",
		}
		config.ApplyNamenodeDefaults(cfg)

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(cfgFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(cfgFile, out, 0644); err != nil {
			return err
		}
		fmt.Printf("wrote sample config to %s\n", cfgFile)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
