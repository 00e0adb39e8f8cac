package services

import (
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const photoDir = "reportes"

var allowedPhotoExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var (
	ErrPhotoType     = errors.New("formato de imagen no permitido (jpg, jpeg, png, gif, webp)")
	ErrPhotoTooLarge = errors.New("la imagen excede el tamaño máximo permitido")
)

// PhotoStorage saves uploaded report photos below Root.
type PhotoStorage struct {
	Root     string
	MaxBytes int64
}

func NewPhotoStorage(root string, maxMB int64) *PhotoStorage {
	return &PhotoStorage{Root: root, MaxBytes: maxMB << 20}
}

// Save writes the upload under a random name and returns its
// media-relative path, e.g. "reportes/<uuid>.jpg".
func (s *PhotoStorage) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExt[ext] {
		return "", ErrPhotoType
	}
	if s.MaxBytes > 0 && file.Size > s.MaxBytes {
		return "", ErrPhotoTooLarge
	}

	dir := filepath.Join(s.Root, photoDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create photo directory")
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create photo file")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", errors.Wrap(err, "write photo")
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", errors.Wrap(err, "close photo")
	}

	return path.Join(photoDir, name), nil
}

// Remove deletes a stored photo; a missing file is not an error.
func (s *PhotoStorage) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return errors.Errorf("invalid photo path %q", rel)
	}
	err := os.Remove(filepath.Join(s.Root, clean))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove photo")
	}
	return nil
}
