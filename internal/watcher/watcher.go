// Package watcher keeps note image references in step with the image
// directory on disk.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/catatan/internal/metrics"
	"github.com/starford/catatan/internal/storage"
)

// reconcileDelay debounces bursts of removals into one reconciliation pass.
const reconcileDelay = 200 * time.Millisecond

// Refs is the subset of the note store the watcher mutates.
type Refs interface {
	RemoveImage(ctx context.Context, key string, now time.Time) ([]string, error)
	ImageKeys(ctx context.Context) (map[string]struct{}, error)
}

// EventCallback is called once per note whose images changed.
// kind is always "updated" today.
type EventCallback func(kind string, noteID string)

// Watch starts an fsnotify watcher on the image directory and processes
// file events until ctx is cancelled. A removed or renamed image has its
// reference dropped from every note; cb is called for each changed note.
// Each burst of removals is followed by a debounced Reconcile pass.
func Watch(ctx context.Context, refs Refs, images storage.ImageStore, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := images.Root()
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Reconcile(ctx, refs, images, logger, cb); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key := filepath.Base(ev.Name)
			if key == "" || key[0] == '.' {
				continue
			}
			dropImage(ctx, refs, key, logger, cb)
			scheduleReconcile()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// dropImage removes key from every note and reports each changed note.
func dropImage(ctx context.Context, refs Refs, key string, logger *slog.Logger, cb EventCallback) {
	ids, err := refs.RemoveImage(ctx, key, time.Now())
	if err != nil {
		logger.Warn("watcher: remove image failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	metrics.ImagesRemovedTotal.Add(float64(len(ids)))
	for _, id := range ids {
		logger.Debug("watcher: dropped image", slog.String("key", key), slog.String("note", id))
		if cb != nil {
			cb("updated", id)
		}
	}
}
