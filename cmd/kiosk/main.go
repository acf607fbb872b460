package main

import (
	"fmt"
	"os"

	"github.com/odclabs/kiosk/internal/cli"
	"github.com/odclabs/kiosk/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "kiosk",
		Short: "Kiosk CLI - Ask the community center anything",
		Long: `Kiosk CLI talks to a running kiosk server.

Environment variables:
  KIOSK_API_URL      API base URL (default: http://localhost:8080)
  KIOSK_ADMIN_TOKEN  Admin token, only needed for rebuild`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.LanguagesCmd())
	rootCmd.AddCommand(client.RebuildCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
