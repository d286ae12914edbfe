package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/google/uuid"
)

// MediaStorage is where upload bytes go when a bucket is configured.
type MediaStorage interface {
	PutMedia(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

var _ MediaStorage = (*MinioService)(nil)

// UploadService keeps metadata of uploaded files and, optionally, their bytes
// in MediaStorage.
type UploadService struct {
	mu       sync.RWMutex
	files    map[string]*model.UploadedFile
	storage  MediaStorage
	maxBytes int64
	now      func() time.Time
}

// NewUploadService creates the service. storage may be nil.
func NewUploadService(storage MediaStorage, maxBytes int64) *UploadService {
	return &UploadService{
		files:    make(map[string]*model.UploadedFile),
		storage:  storage,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Save records an upload. Files above MaxBytes fail with model.ErrTooLarge.
func (s *UploadService) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (*model.UploadedFile, error) {
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, fmt.Errorf("%s has %d bytes: %w", name, size, model.ErrTooLarge)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f := &model.UploadedFile{
		ID:           uuid.New().String(),
		OriginalName: name,
		MimeType:     contentType,
		Size:         size,
		UploadedAt:   s.now().UTC(),
	}

	if s.storage != nil {
		objectName := ObjectName(f.ID, name)
		if err := s.storage.PutMedia(ctx, objectName, r, size, contentType); err != nil {
			return nil, err
		}
		f.ObjectName = objectName
	}

	s.mu.Lock()
	s.files[f.ID] = f
	s.mu.Unlock()

	slog.Debug("upload stored", "id", f.ID, "name", name, "size", size, "bucket", f.ObjectName != "")
	return f, nil
}

// Get returns the metadata of an upload.
func (s *UploadService) Get(id string) (*model.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, model.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

// DownloadURL returns a presigned URL, or "" when the bytes were not kept.
func (s *UploadService) DownloadURL(ctx context.Context, id string) (string, error) {
	f, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if f.ObjectName == "" || s.storage == nil {
		return "", nil
	}
	return s.storage.PresignedURL(ctx, f.ObjectName)
}
