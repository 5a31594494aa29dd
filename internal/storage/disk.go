package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Disk stores pages as files below a root directory
type Disk struct {
	dataDir string
}

// ExpandHome replaces a leading "~/" with the user's home directory
func ExpandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dir[2:]), nil
}

// NewDisk creates a disk store rooted at dataDir
func NewDisk(dataDir string) (*Disk, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Disk{dataDir: dataDir}, nil
}

// Dir returns the root directory
func (d *Disk) Dir() string {
	return d.dataDir
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.dataDir, filepath.FromSlash(key))
}

// Exists reports whether key has been written
func (d *Disk) Exists(_ context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	info, err := os.Stat(d.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

// Get reads the contents of key
func (d *Disk) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Put writes data to key. The file appears under its final name only once
// fully written, so an interrupted run never leaves a partial page behind.
func (d *Disk) Put(_ context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	dst := d.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("renaming %s: %w", key, err)
	}
	return nil
}

// List returns every stored key beginning with prefix, sorted
func (d *Disk) List(_ context.Context, prefix string) ([]string, error) {
	// Walk from the deepest directory the prefix names
	dir := prefix
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i]
	} else {
		dir = ""
	}
	start := d.path(dir)
	if dir == "" {
		start = d.dataDir
	}

	var keys []string
	err := filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".partial-") {
			return nil
		}
		rel, err := filepath.Rel(d.dataDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}
