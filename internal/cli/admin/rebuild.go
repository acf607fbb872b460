package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/odclabs/kiosk/internal/config"
)

// RebuildCmd returns the rebuild command
func RebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the vector index from the corpus",
		Long:  "Load the corpus, embed every passage, and write a fresh vector index",
		RunE:  runRebuild,
	}

	cmd.Flags().Bool("sync", false, "Pull the latest corpus snapshot from S3 before rebuilding")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = embeddingBar(total)
		}
		_ = bar.Set(done)
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := buildApp(ctx, cfg, !noMigrate, progress)
	if err != nil {
		return err
	}
	defer a.Close()

	if doSync, _ := cmd.Flags().GetBool("sync"); doSync {
		if a.syncer == nil {
			return fmt.Errorf("--sync requires KIOSK_S3_ENDPOINT and credentials")
		}
		color.Cyan("Syncing corpus from bucket %s...", cfg.S3Bucket)
		result, err := a.syncer.SyncCorpus(ctx, cfg.CorpusDir)
		if err != nil {
			return fmt.Errorf("corpus sync failed: %w", err)
		}
		color.Green("✓ Synced %d files (%d stale removed)", result.Downloaded, result.Removed)
	}

	result, err := a.rebuilder.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	color.Green("✓ Indexed %d passages from %d documents in %s",
		result.Passages, result.Documents, result.Duration.Round(time.Millisecond))
	return nil
}

func embeddingBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString("Embedding passages")),
		progressbar.OptionSetItsString("passages"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
	)
}
