package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// objectPrefix is the key prefix for uploaded backups.
const objectPrefix = "backups"

// Snapshotter writes a consistent copy of the database to path.
type Snapshotter interface {
	Snapshot(ctx context.Context, path string) error
}

// Backup describes one completed backup.
type Backup struct {
	ID         ulid.ULID
	Path       string
	ObjectName string
	Size       int64
	Uploaded   bool
	CreatedAt  time.Time
}

// Backupper snapshots the database into dir and hands each copy to an Uploader.
type Backupper struct {
	db       Snapshotter
	dir      string
	uploader Uploader
}

// NewBackupper returns a Backupper. A nil uploader keeps backups local.
func NewBackupper(db Snapshotter, dir string, uploader Uploader) *Backupper {
	if uploader == nil {
		uploader = &NoopUploader{}
	}
	return &Backupper{db: db, dir: dir, uploader: uploader}
}

// Backup writes recipes-<ulid>.db into the backup directory and uploads it.
// ULIDs sort by creation time, so a directory listing is chronological.
func (b *Backupper) Backup(ctx context.Context) (Backup, error) {
	id := ulid.Make()
	name := fmt.Sprintf("recipes-%s.db", id)
	out := Backup{
		ID:         id,
		Path:       filepath.Join(b.dir, name),
		ObjectName: path.Join(objectPrefix, name),
		CreatedAt:  ulid.Time(id.Time()),
	}

	if err := b.db.Snapshot(ctx, out.Path); err != nil {
		return Backup{}, fmt.Errorf("snapshot database: %w", err)
	}

	info, err := os.Stat(out.Path)
	if err != nil {
		return Backup{}, fmt.Errorf("stat backup: %w", err)
	}
	out.Size = info.Size()

	if _, local := b.uploader.(*NoopUploader); local {
		return out, nil
	}
	if err := b.uploader.Upload(ctx, out.ObjectName, out.Path); err != nil {
		// The local copy is still usable.
		return out, err
	}
	out.Uploaded = true

	slog.Info("backup uploaded",
		"component", "snapshot",
		"object", out.ObjectName,
		"size_bytes", out.Size,
	)
	return out, nil
}

// DownloadURL returns a pre-signed URL for an uploaded backup.
func (b *Backupper) DownloadURL(ctx context.Context, bk Backup) (string, time.Time, error) {
	if !bk.Uploaded {
		return "", time.Time{}, ErrNotConfigured
	}
	return b.uploader.PresignedURL(ctx, bk.ObjectName)
}

