// Package storage abstracts the object store used for avatar uploads.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Uploader interface {
	Upload(originalName, contentType string, r io.Reader) (string, error)
}

// LocalUploader writes uploads to a directory served as static files.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &LocalUploader{
		Dir:     dir,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (u *LocalUploader) Upload(originalName, contentType string, r io.Reader) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	name := id.String() + filepath.Ext(originalName)

	f, err := os.Create(filepath.Join(u.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return u.BaseURL + "/" + name, nil
}
