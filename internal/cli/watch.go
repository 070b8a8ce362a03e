package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"docquery/internal/app"
	"docquery/internal/inbox"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest PDFs dropped into a directory",
	Long: `Ingests every PDF already under dir, then watches the tree and ingests new or
rewritten PDFs until interrupted. Files are identified by content hash, so a file
that is already indexed is skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchDebounce time.Duration
	watchOCR      bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", inbox.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchOCR, "ocr", true, "recognize pages without a text layer")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.VerifyEmbedder(ctx); err != nil {
			return err
		}

		watcher := inbox.NewWatcher(dir, inbox.NewIngestFunc(a.Pipeline, watchOCR && a.Config.OCREnabled), watchDebounce)

		ingested, failed, err := watcher.ProcessExisting(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("%s Processed existing files: %d ok, %d failed\n", success("✓"), ingested, failed)
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", heading(dir))

		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
}
