package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_HandlesDroppedAudio(t *testing.T) {
	dir := t.TempDir()
	seen := make(chan string, 10)

	w, err := New(func(_ context.Context, path string) {
		seen <- path
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, dir)

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(50 * time.Millisecond)

	audioPath := filepath.Join(dir, "dictation.wav")
	if err := os.WriteFile(audioPath, []byte("audio"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case got := <-seen:
		if got != audioPath {
			t.Errorf("expected %s, got %s", audioPath, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked for dropped audio file")
	}
}

func TestWatcher_IgnoresNonAudioFiles(t *testing.T) {
	dir := t.TempDir()
	seen := make(chan string, 10)

	w, err := New(func(_ context.Context, path string) {
		seen <- path
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, dir)

	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not audio"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case got := <-seen:
		t.Errorf("handler invoked for non-audio file %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	w, err := New(func(context.Context, string) {})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, t.TempDir()) }()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.wav", true},
		{"a.WAV", true},
		{"a.mp3", true},
		{"a.m4a", true},
		{"a.flac", true},
		{"a.txt", false},
		{"a.wav.part", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := isAudioFile(tt.path); got != tt.want {
			t.Errorf("isAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
