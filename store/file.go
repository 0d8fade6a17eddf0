package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File stores each collection as <dir>/<name>.json, indented so it stays
// readable by hand.
type File struct {
	dir string
	mu  sync.Mutex
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *File) Read(_ context.Context, name string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return decodeArray(name, body)
}

func (f *File) Write(_ context.Context, name string, records []json.RawMessage) error {
	compact, err := encodeArray(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	var body bytes.Buffer
	if err := json.Indent(&body, compact, "", "  "); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(body.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
