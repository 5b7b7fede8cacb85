package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipes/internal/snapshot"
	"github.com/hyperengineering/recipes/internal/store"
)

var (
	backupDirOverride string
	backupJSONOutput  bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Take a one-off database backup",
	Long: "Write a point-in-time copy of the SQLite database to the backup directory. " +
		"When backup storage is configured the copy is uploaded and a download link is printed.",
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupDirOverride, "dir", "",
		"Backup directory (overrides config and RECIPES_BACKUP_DIR)")
	backupCmd.Flags().BoolVar(&backupJSONOutput, "json", false, "Output in JSON format")
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := cfg.Backup.Dir
	if backupDirOverride != "" {
		dir = backupDirOverride
	}

	uploader, err := snapshot.NewUploader(cfg.Backup.Storage)
	if err != nil {
		return err
	}

	return store.With(cmd.Context(), storeOptions(cfg), func(db *store.DB) error {
		b := snapshot.NewBackupper(db, dir, uploader)
		bk, err := b.Backup(cmd.Context())
		if err != nil {
			return err
		}

		var link string
		var expiry time.Time
		if bk.Uploaded {
			link, expiry, err = b.DownloadURL(cmd.Context(), bk)
			if err != nil && !errors.Is(err, snapshot.ErrNotConfigured) {
				return err
			}
		}

		if backupJSONOutput {
			out := map[string]any{
				"id":         bk.ID.String(),
				"path":       bk.Path,
				"size_bytes": bk.Size,
				"uploaded":   bk.Uploaded,
				"created_at": bk.CreatedAt,
			}
			if link != "" {
				out["object"] = bk.ObjectName
				out["url"] = link
				out["url_expires_at"] = expiry
			}
			return printJSON(cmd.OutOrStdout(), out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote backup %s (%s)\n", bk.Path, formatSize(bk.Size))
		if link != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded as %s\n", bk.ObjectName)
			fmt.Fprintf(cmd.OutOrStdout(), "Download (expires %s): %s\n", expiry.Format(time.RFC3339), link)
		}
		return nil
	})
}
