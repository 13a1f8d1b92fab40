package main

import (
	"fmt"

	"healthagent/service"
	"healthagent/store"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
)

var (
	backupBucket string
	backupKey    string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload the database file to S3",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupBucket, "bucket", "", "destination bucket")
	backupCmd.Flags().StringVar(&backupKey, "key", "user_data.db", "destination object key")
	_ = backupCmd.MarkFlagRequired("bucket")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := service.OpenStore(ctx, cfg.Store.DBFile)
	if err != nil {
		return err
	}
	// flush the WAL so the file on disk is complete
	if err := db.Checkpoint(ctx); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	size, err := store.NewS3Backup(s3.NewFromConfig(awsCfg), backupBucket, backupKey).Upload(ctx, cfg.Store.DBFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes) to s3://%s/%s\n", cfg.Store.DBFile, size, backupBucket, backupKey)
	return nil
}
