package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/histshrink/internal/backup"
	"github.com/dshills/histshrink/internal/config"
)

var flagRestoreTo string

func openBackups() (*backup.Store, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	s, err := backup.New(true, cfg.Backup.Dir, cfg.Backup.RetentionDays)
	if err != nil {
		return nil, fmt.Errorf("opening backup store: %w", err)
	}
	return s, nil
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups of rewritten history files",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openBackups()
		if err != nil {
			return err
		}
		entries, err := s.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stdout, "No backups.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(os.Stdout, "%s  %s  %8d  %s\n",
				e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Size(), e.Path)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a backup to its original path (or --to)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openBackups()
		if err != nil {
			return err
		}
		entry, err := s.Restore(args[0], flagRestoreTo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		dest := entry.Path
		if flagRestoreTo != "" {
			dest = flagRestoreTo
		}
		fmt.Fprintf(os.Stdout, "Restored %s to %s\n", entry.ID, dest)
		return nil
	},
}

var backupClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openBackups()
		if err != nil {
			return err
		}
		n, err := s.Clear()
		if err != nil {
			return fmt.Errorf("clearing backups: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Removed %d backups.\n", n)
		return nil
	},
}

var backupShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show backup statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openBackups()
		if err != nil {
			return err
		}
		stats, err := s.GetStats()
		if err != nil {
			return fmt.Errorf("reading backup stats: %w", err)
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func init() {
	backupRestoreCmd.Flags().StringVar(&flagRestoreTo, "to", "", "Restore to this path instead")

	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupClearCmd)
	backupCmd.AddCommand(backupShowCmd)
}
