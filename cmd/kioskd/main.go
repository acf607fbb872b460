package main

import (
	"fmt"
	"os"

	"github.com/odclabs/kiosk/internal/cli"
	"github.com/odclabs/kiosk/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kioskd",
		Short: "Kiosk daemon and CLI",
		Long:  "Kiosk daemon for running the question-answering API server and rebuilding the vector index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.RebuildCmd())
	rootCmd.AddCommand(admin.SchemaCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
