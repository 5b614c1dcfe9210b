package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tempPrefix = ".upload-"

// localStorage keeps blobs as plain files in one directory.
// Writes go to a temp file first and are renamed into place, so a blob is either
// complete or absent.
type localStorage struct {
	root string
}

// NewLocal creates a disk-backed blob store rooted at dir, creating dir if missing.
func NewLocal(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &localStorage{root: filepath.Clean(dir)}, nil
}

// path maps a key back into the root. Only the base name is honoured so a key can
// never point outside the upload directory.
func (s *localStorage) path(key string) (string, error) {
	name := filepath.Base(filepath.Clean(key))
	if name == "." || name == string(filepath.Separator) || name == ".." || strings.HasPrefix(name, tempPrefix) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, name), nil
}

func (s *localStorage) Put(ctx context.Context, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	dst, err := s.path(name)
	if err != nil {
		return ObjectInfo{}, err
	}

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		cleanup()
		return ObjectInfo{}, fmt.Errorf("failed to save file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return ObjectInfo{}, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("failed to move file into place: %w", err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          dst,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func (s *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return f, ObjectInfo{Key: p, Size: st.Size(), LastModified: st.ModTime()}, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *localStorage) List(ctx context.Context) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	out := make([]ObjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, ObjectInfo{
			Key:          filepath.Join(s.root, e.Name()),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	return out, nil
}
