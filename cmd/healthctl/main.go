// Command healthctl seeds, queries and backs up a local healthagent database.
package main

import (
	"fmt"
	"os"

	"healthagent"

	"github.com/spf13/cobra"
)

var (
	dbFile string
	cfg    healthagent.Config
)

var rootCmd = &cobra.Command{
	Use:           "healthctl",
	Short:         "Operate a healthagent database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = healthagent.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbFile != "" {
			cfg.Store.DBFile = dbFile
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "", "SQLite database file (default $DB_FILE)")
	rootCmd.AddCommand(seedCmd, askCmd, backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
