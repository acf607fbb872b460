package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RebuildResponse represents the admin rebuild API response.
type RebuildResponse struct {
	Documents  int    `json:"documents"`
	Passages   int    `json:"passages"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

// RebuildCmd creates the rebuild command. It asks a running server to
// rebuild its vector index and requires KIOSK_ADMIN_TOKEN.
func RebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the server's vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runRemoteRebuild(outputJSON)
		},
	}
}

func runRemoteRebuild(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	fmt.Println("Rebuilding index, this may take a while...")
	resp, err := api.Post("/v1/admin/rebuild", nil)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	var rebuildResp RebuildResponse
	if err := json.Unmarshal(resp.Data, &rebuildResp); err != nil {
		return fmt.Errorf("failed to parse rebuild result: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(rebuildResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	duration := time.Duration(rebuildResp.DurationMS) * time.Millisecond
	color.Green("✓ Indexed %d passages from %d documents in %s",
		rebuildResp.Passages, rebuildResp.Documents, duration.Round(time.Millisecond))

	return nil
}
