package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

// Service exposes upload and removal of hosted images.
type Service interface {
	UploadImage(ctx context.Context, userID uuid.UUID, input UploadInput) (*MediaDTO, error)
	DeleteMedia(ctx context.Context, id uuid.UUID) error
	GetMedia(ctx context.Context, id uuid.UUID) (*MediaDTO, error)
	ListUserMedia(ctx context.Context, userID uuid.UUID) ([]MediaDTO, error)
}

// UploadInput models an incoming file upload.
type UploadInput struct {
	FileName    string
	ContentType string
	Folder      string
	SizeBytes   int64
	Body        io.Reader
}

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

type service struct {
	repo           *Repository
	uploader       Uploader
	maxUploadBytes int64
}

// NewService constructs a media service backed by the given uploader.
func NewService(repo *Repository, uploader Uploader, cfg config.MediaConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		repo:           repo,
		uploader:       uploader,
		maxUploadBytes: int64(cfg.MaxUploadMB) * 1024 * 1024,
	}, nil
}

// UploadImage validates the file, pushes it to the image host, and records the
// returned URL and public id.
func (s *service) UploadImage(ctx context.Context, userID uuid.UUID, input UploadInput) (*MediaDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	fileName := sanitizeFileName(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if !isAllowedImageType(input.ContentType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content_type must be an image format")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds %d byte limit", s.maxUploadBytes))
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}

	// LimitReader guards against clients under-reporting size_bytes.
	body := io.LimitReader(input.Body, s.maxUploadBytes+1)
	result, err := s.uploader.Upload(ctx, fileName, input.ContentType, strings.TrimSpace(input.Folder), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "image host upload failed")
	}

	media := &models.Media{
		ID:       uuid.New(),
		URL:      result.URL,
		PublicID: result.PublicID,
		Folder:   strings.TrimSpace(input.Folder),
		Bytes:    result.Bytes,
		UserID:   userID,
	}
	created, err := s.repo.Create(ctx, media)
	if err != nil {
		// The hosted file would be orphaned otherwise.
		_ = s.uploader.Remove(ctx, result.PublicID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record upload")
	}
	return NewMediaDTO(created), nil
}

// DeleteMedia removes the hosted file first, then the record.
func (s *service) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	media, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load media")
	}
	if err := s.uploader.Remove(ctx, media.PublicID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "image host delete failed")
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete media record")
	}
	return nil
}

// GetMedia loads a single upload record.
func (s *service) GetMedia(ctx context.Context, id uuid.UUID) (*MediaDTO, error) {
	media, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load media")
	}
	return NewMediaDTO(media), nil
}

// ListUserMedia returns the user's uploads, newest first.
func (s *service) ListUserMedia(ctx context.Context, userID uuid.UUID) ([]MediaDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list media")
	}
	return NewMediaDTOs(rows), nil
}

func isAllowedImageType(contentType string) bool {
	for _, candidate := range allowedImageTypes {
		if strings.EqualFold(candidate, contentType) {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
