package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/courspresso/courspresso-web/internal/config"
)

// ImageStorage stores uploaded course images and says where they are served.
type ImageStorage interface {
	SaveFile(ctx context.Context, subDir, originalFilename, contentType string, reader io.Reader) (string, error)
	DeleteFile(ctx context.Context, key string) error
	PublicURL(key string) string
}

// NewImageStorage uses R2 when it is fully configured, local disk otherwise.
func NewImageStorage(cfg *config.Config) ImageStorage {
	if cfg.UseR2() {
		return NewR2Storage(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2Endpoint, cfg.R2BucketName, cfg.R2PublicBaseURL)
	}
	return NewFileStorage(cfg.UploadDir, cfg.UploadBaseURL)
}

func uniqueFileName(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// FileStorage keeps files on local disk under BaseDir.
type FileStorage struct {
	BaseDir string
	BaseURL string
}

func NewFileStorage(baseDir, baseURL string) *FileStorage {
	return &FileStorage{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// SaveFile writes reader to <BaseDir>/<subDir>/<unique name> and returns the
// slash-separated key relative to BaseDir.
func (fs *FileStorage) SaveFile(_ context.Context, subDir, originalFilename, _ string, reader io.Reader) (string, error) {
	dir := filepath.Join(fs.BaseDir, subDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	name := uniqueFileName(originalFilename)
	fullPath := filepath.Join(dir, name)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}
	return filepath.ToSlash(filepath.Join(subDir, name)), nil
}

// DeleteFile is safe to call for a missing file.
func (fs *FileStorage) DeleteFile(_ context.Context, key string) error {
	fullPath := filepath.Join(fs.BaseDir, filepath.FromSlash(key))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

func (fs *FileStorage) PublicURL(key string) string {
	return fs.BaseURL + "/" + key
}
