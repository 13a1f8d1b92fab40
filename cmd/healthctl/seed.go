package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"healthagent"
	"healthagent/seed"
	"healthagent/service"

	"github.com/spf13/cobra"
)

var (
	seedValue uint64
	seedReset bool
	seedDump  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic user profiles",
	Long:  `Creates the schema and inserts 100 generated profiles. Existing IDs are overwritten.`,
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 42, "random seed; 0 picks a random one")
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "delete the database file before seeding")
	seedCmd.Flags().BoolVarP(&seedDump, "verbose", "v", false, "dump the generated profiles")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedReset && cfg.Store.DBFile != ":memory:" {
		if err := os.Remove(cfg.Store.DBFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}

	db, err := service.OpenStore(cmd.Context(), cfg.Store.DBFile)
	if err != nil {
		return err
	}
	defer db.Close()

	profiles := seed.New(seedValue).Profiles(seed.NumUsers)
	if seedDump {
		healthagent.Fdump(cmd.OutOrStdout(), profiles)
	}

	n, err := seed.Seed(cmd.Context(), db, profiles)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users into %s\n", n, cfg.Store.DBFile)
	return nil
}
