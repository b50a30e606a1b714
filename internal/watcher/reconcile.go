package watcher

import (
	"context"
	"log/slog"

	"github.com/starford/catatan/internal/storage"
)

// Reconcile drops every image reference whose file is missing from the
// image directory. Files nobody references are left alone since an upload
// may precede the save that attaches it.
func Reconcile(ctx context.Context, refs Refs, images storage.ImageStore, logger *slog.Logger, cb EventCallback) error {
	onDisk, err := images.List()
	if err != nil {
		return err
	}
	referenced, err := refs.ImageKeys(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(onDisk))
	for _, r := range onDisk {
		disk[r.Key] = struct{}{}
	}

	missing := 0
	for key := range referenced {
		if _, ok := disk[key]; ok {
			continue
		}
		missing++
		dropImage(ctx, refs, key, logger, cb)
	}
	logger.Debug("reconcile: done",
		slog.Int("on_disk", len(disk)),
		slog.Int("referenced", len(referenced)),
		slog.Int("missing", missing))
	return nil
}
