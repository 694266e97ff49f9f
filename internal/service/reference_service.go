package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

// referencePathPrefix is the public route under which stored images are served.
const referencePathPrefix = "/references/"

type referenceStorage interface {
	Save(key string, r io.Reader) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

// ReferenceUpload carries one submitted reference image.
type ReferenceUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// ReferenceFile is an opened stored image.
type ReferenceFile struct {
	File     *os.File
	MimeType string
}

// ReferenceConfig holds upload limits and the public URL base.
type ReferenceConfig struct {
	MaxFileSize   int64
	MaxImages     int
	AllowedMIMEs  []string
	PublicBaseURL string
}

// ReferenceService stores proposal reference images and maps them to URLs.
type ReferenceService struct {
	storage referenceStorage
	logger  *zap.Logger
	cfg     ReferenceConfig
	mimeSet map[string]struct{}
}

// NewReferenceService constructs the service with defaults.
func NewReferenceService(storage referenceStorage, cfg ReferenceConfig, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 8 * 1024 * 1024
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 10
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &ReferenceService{storage: storage, logger: logger, cfg: cfg, mimeSet: mimeSet}
}

// Validate checks count, size and content type of uploads without storing them.
func (s *ReferenceService) Validate(existing int, uploads []ReferenceUpload) error {
	if existing+len(uploads) > s.cfg.MaxImages {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d reference images are allowed", s.cfg.MaxImages))
	}
	for i := range uploads {
		upload := &uploads[i]
		if upload.Content == nil || upload.Size <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reference %q is empty", upload.Filename))
		}
		if upload.Size > s.cfg.MaxFileSize {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reference %q exceeds %d bytes limit", upload.Filename, s.cfg.MaxFileSize))
		}
		mimeType, err := detectMime(upload.Content)
		if err != nil {
			return err
		}
		if _, allowed := s.mimeSet[mimeType]; !allowed {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reference %q has unsupported type %s", upload.Filename, mimeType))
		}
		upload.MimeType = mimeType
	}
	return nil
}

// Store saves uploads under a fresh prefix and returns their public URLs.
// Nothing stays on disk when any upload fails.
func (s *ReferenceService) Store(ctx context.Context, uploads []ReferenceUpload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrUploadFailed, "reference storage is not configured")
	}
	prefix := "proposals/" + uuid.NewString()
	urls := make([]string, 0, len(uploads))
	for i, upload := range uploads {
		if err := ctx.Err(); err != nil {
			s.Discard(urls)
			return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, "reference upload cancelled")
		}
		if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
			s.Discard(urls)
			return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, "failed to read reference image")
		}
		key := fmt.Sprintf("%s/%d%s", prefix, i+1, referenceExtension(upload.Filename, upload.MimeType))
		if _, err := s.storage.Save(key, upload.Content); err != nil {
			s.Discard(urls)
			return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, "failed to store reference image")
		}
		urls = append(urls, s.URLFor(key))
	}
	return urls, nil
}

// Discard removes stored images by URL. URLs that do not point at this
// store are ignored.
func (s *ReferenceService) Discard(urls []string) {
	if s.storage == nil {
		return
	}
	for _, url := range urls {
		key, ok := s.KeyFor(url)
		if !ok {
			continue
		}
		if err := s.storage.Delete(key); err != nil {
			s.logger.Warn("failed to delete reference image", zap.String("key", key), zap.Error(err))
		}
	}
}

// Open returns a stored image for streaming.
func (s *ReferenceService) Open(key string) (*ReferenceFile, error) {
	if s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reference not found")
	}
	file, err := s.storage.Open(key)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reference not found")
	}
	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &ReferenceFile{File: file, MimeType: mimeType}, nil
}

// URLFor builds the public URL of a stored key.
func (s *ReferenceService) URLFor(key string) string {
	return s.cfg.PublicBaseURL + referencePathPrefix + key
}

// KeyFor extracts the storage key from a URL produced by URLFor.
func (s *ReferenceService) KeyFor(url string) (string, bool) {
	prefix := s.cfg.PublicBaseURL + referencePathPrefix
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := path.Clean(strings.TrimPrefix(url, prefix))
	if key == "." || strings.HasPrefix(key, "..") {
		return "", false
	}
	return key, true
}

// Owns reports whether url was produced by this store.
func (s *ReferenceService) Owns(url string) bool {
	_, ok := s.KeyFor(url)
	return ok
}

func detectMime(content io.ReadSeeker) (string, error) {
	header := make([]byte, 512)
	n, err := content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect reference image")
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty reference image")
	}
	detected := http.DetectContentType(header[:n])
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = detected[:idx]
	}
	return strings.ToLower(strings.TrimSpace(detected)), nil
}

func referenceExtension(filename, mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}
