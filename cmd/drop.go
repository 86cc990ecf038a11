package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes the coach database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the coach database",
	Long: "Permanently delete the SQLite coach database. Players, matches, deaths, patterns,\n" +
		"coaching sessions and the match archive are lost; re-run analyze to rebuild from the API.",
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	removed := false
	// WAL mode leaves -wal and -shm files next to the database.
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("remove %s: %w", p, err)
		}
		removed = true
	}
	if !removed {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
