package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Destination is the interface for an export target (file, S3, git).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
	// String names the destination in logs and events.
	String() string
}

// FileDestination writes JSONL data to a local file, replacing it atomically.
type FileDestination struct {
	path string
}

func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

func (d *FileDestination) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func (d *FileDestination) String() string { return "file://" + d.path }
