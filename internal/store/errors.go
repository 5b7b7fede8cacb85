package store

import "errors"

var (
	ErrUnsupportedDriver   = errors.New("unsupported database driver")
	ErrSnapshotUnsupported = errors.New("snapshots are only supported for sqlite")
)
