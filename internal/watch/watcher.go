// Package watch ingests dictation audio dropped into a folder. Files
// appearing in the watched directory are handed to the dictation
// pipeline.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// audioExtensions are the file types fed to the handler; everything
// else in the folder is ignored.
var audioExtensions = []string{".wav", ".mp3", ".mp4", ".m4a", ".flac", ".ogg", ".webm"}

// Handler processes one dropped audio file.
type Handler func(ctx context.Context, path string)

// Watcher monitors a drop folder for new audio files.
type Watcher struct {
	watcher *fsnotify.Watcher
	handler Handler
}

// New creates a watcher that invokes handler for each new audio file.
func New(handler Handler) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{watcher: w, handler: handler}, nil
}

// Run watches dir until ctx is cancelled. Each handler invocation runs
// inline so files are processed in arrival order; the handler owns any
// concurrency it needs.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("Watching dictation drop folder")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isAudioFile(event.Name) {
				log.Debug().Str("path", event.Name).Msg("Ignoring non-audio file")
				continue
			}
			log.Info().Str("path", event.Name).Msg("Audio file dropped")
			w.handler(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Drop folder watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range audioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
