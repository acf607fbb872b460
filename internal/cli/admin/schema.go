package admin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// SchemaCmd returns the schema command. It prints the migration SQL so
// operators without golang-migrate can apply the schema by hand.
func SchemaCmd() *cobra.Command {
	var migrationsDir string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(migrationsDir)
		},
	}

	cmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "Migrations directory")

	return cmd
}

func runSchema(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}

	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		fmt.Printf("-- %s\n%s\n", name, strings.TrimRight(string(data), "\n"))
		fmt.Println()
	}

	return nil
}
