package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// File is an upload received from a client.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Store persists uploaded objects by name.
type Store interface {
	Save(ctx context.Context, name string, content io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// Service names uploads and enforces the image-only, size-capped policy.
type Service struct {
	store   Store
	maxSize int64
	now     func() time.Time
}

func NewService(store Store, maxSize int64) *Service {
	return &Service{
		store:   store,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Put stores f under a generated name and returns that name.
func (s *Service) Put(ctx context.Context, f *File) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", internal.ErrInvalidFileType
	}
	if s.maxSize > 0 && f.Size > s.maxSize {
		return "", internal.ErrFileTooLarge
	}

	name := GenerateFilename(f.Filename, s.now())
	if err := s.store.Save(ctx, name, f.Content, f.Size, f.ContentType); err != nil {
		return "", fmt.Errorf("save upload %s: %w", name, err)
	}

	return name, nil
}

func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}
	return s.store.Open(ctx, name)
}

func (s *Service) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return nil
	}
	return s.store.Remove(ctx, name)
}

// GenerateFilename returns "<unix-millis>-<random>.<ext>" keeping the original extension.
func GenerateFilename(original string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, strings.ToLower(filepath.Ext(original)))
}

// ValidName rejects anything that could escape the upload namespace.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
