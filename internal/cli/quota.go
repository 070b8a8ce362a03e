package cli

import (
	"context"

	"github.com/spf13/cobra"

	"docquery/internal/app"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show generative rate-limit usage",
	Long: `Shows the sliding-window usage of this process. Each CLI invocation starts
with an empty window; the API server reports the shared window at /api/v1/quota.`,
	Args: cobra.NoArgs,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app.App) error {
		status := a.Gateway.QuotaStatus()
		cmd.Printf("Model:      %s\n", heading(status.Model))
		cmd.Printf("Used:       %d / %d per %ds\n", status.Used, status.Max, status.WindowSeconds)
		remaining := success(status.Remaining)
		if status.Remaining == 0 {
			remaining = failure(status.Remaining)
		}
		cmd.Printf("Remaining:  %s\n", remaining)
		return nil
	})
}
