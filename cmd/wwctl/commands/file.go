package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store <local-path> <remote-name>",
	Short: "Store a local file in the cluster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		if err := runner.StoreFile(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Success: stored %s as %s\n", args[0], args[1])
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <remote-name> <local-path>",
	Short: "Fetch a file from the cluster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		if err := runner.FetchFile(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Success: fetched %s into %s\n", args[0], args[1])
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <remote-name>",
	Short: "Delete a file from the cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		if err := runner.DeleteFile(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Success: deleted %s\n", args[0])
		return nil
	},
}
