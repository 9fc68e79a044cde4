package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"lendledger/internal/domain/collateral"
	"lendledger/pkg/id"
)

const scheme = "local://"

var _ collateral.ImageStore = (*LocalImageStore)(nil)

// LocalImageStore writes photos under a directory on disk.
type LocalImageStore struct{ dir string }

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

func (s *LocalImageStore) Owns(ref string) bool { return strings.HasPrefix(ref, scheme) }

func (s *LocalImageStore) Put(ctx context.Context, img collateral.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := id.NewID32() + extension(img)
	if err := os.WriteFile(filepath.Join(s.dir, name), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return scheme + name, nil
}

func (s *LocalImageStore) Get(ctx context.Context, ref string) (*collateral.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(ref, scheme)
	// refs are flat file names; anything with a path component is foreign
	if !s.Owns(ref) || name == "" || name != filepath.Base(name) {
		return nil, collateral.ErrImageNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, collateral.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &collateral.Image{Name: name, ContentType: ct, Data: data}, nil
}

func extension(img collateral.Image) string {
	if ext := strings.ToLower(filepath.Ext(img.Name)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(img.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
