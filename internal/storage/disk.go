package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk writes uploads under a local directory that the HTTP server serves
// statically. It is the fallback when no object store is configured.
type Disk struct {
	dir       string
	urlPrefix string
}

func NewDisk(dir, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) Put(ctx context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, filepath.Join(d.dir, filepath.Base(name))); err != nil {
		return "", err
	}

	return d.urlPrefix + "/" + filepath.Base(name), nil
}
