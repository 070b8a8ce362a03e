package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"docquery/internal/app"
	"docquery/internal/extraction"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pdf...]",
	Short: "Check that files are readable PDFs within the configured limits",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Report which external PDF and OCR tools are installed",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	extractor := app.NewExtractor(cfg)
	ctx := cmd.Context()

	failed := 0
	for _, path := range args {
		result, err := extractor.Validate(ctx, path)
		if err != nil {
			failed++
			cmd.Printf("%s %s: %v\n", failure("✗"), path, err)
			continue
		}
		cmd.Printf("%s %s  %d pages, %s\n", success("✓"), path, result.PageCount, formatBytes(result.SizeBytes))
		for _, w := range result.Warnings {
			cmd.Printf("    %s %s\n", warning("!"), w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}

func runTools(cmd *cobra.Command, _ []string) error {
	status := extraction.CheckTools()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	missing := 0
	for _, name := range names {
		if status[name] {
			cmd.Printf("%s %s\n", success("✓"), name)
		} else {
			missing++
			cmd.Printf("%s %s %s\n", failure("✗"), name, faint("(not found)"))
		}
	}

	if missing > 0 {
		cmd.Println()
		cmd.Println(extraction.InstallInstructions())
		cmd.Println()
		cmd.Println("The native reader works without these tools; OCR and the poppler reader need them.")
	}
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
