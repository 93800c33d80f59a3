// SPDX-License-Identifier: Unlicense OR MIT

// Package watch rebuilds shaders when their sources change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"gioui.org/fxcbuild/internal/log"
	"gioui.org/fxcbuild/internal/shader"
)

// DefaultSettle is how long events are collected before rebuilding.
const DefaultSettle = 100 * time.Millisecond

// Builder builds a single entry.
type Builder interface {
	Build(ctx context.Context, e shader.Entry) error
}

// Watcher rebuilds entries through Builder when their sources change.
type Watcher struct {
	// SourceDir is the directory entry files are relative to.
	SourceDir string
	Entries   []shader.Entry
	Builder   Builder
	// Settle coalesces bursts of events, such as an editor saving a
	// file in several writes. Zero means DefaultSettle.
	Settle time.Duration
	Log    *zap.Logger

	ready func()
}

// Run watches the entry sources until ctx is done, rebuilding the
// entries whose source was written or created.
func (w *Watcher) Run(ctx context.Context) error {
	logger := log.OrNop(w.Log)
	settle := w.Settle
	if settle == 0 {
		settle = DefaultSettle
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch: %w", err)
	}
	defer fw.Close()

	paths := make([]string, len(w.Entries))
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for i, e := range w.Entries {
		p, err := filepath.Abs(e.Source(w.SourceDir))
		if err != nil {
			return err
		}
		paths[i] = p
		watched[p] = true
		if dir := filepath.Dir(p); !dirs[dir] {
			dirs[dir] = true
			if err := fw.Add(dir); err != nil {
				return fmt.Errorf("unable to watch %s: %w", dir, err)
			}
			logger.Debug("watching", zap.String("dir", dir))
		}
	}
	if w.ready != nil {
		w.ready()
	}

	pending := make(map[string]bool)
	var settled <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			p := filepath.Clean(ev.Name)
			if !watched[p] {
				continue
			}
			pending[p] = true
			settled = time.After(settle)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-settled:
			settled = nil
			for i, e := range w.Entries {
				if !pending[paths[i]] {
					continue
				}
				logger.Info("rebuilding", zap.String("file", e.File))
				if err := w.Builder.Build(ctx, e); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					logger.Warn("rebuild failed", zap.String("file", e.File), zap.Error(err))
				}
			}
			clear(pending)
		}
	}
}
