package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/logging"
)

// MaxImageBytes caps project image uploads.
const MaxImageBytes = 5 << 20

// Upload is an image file received from a project form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageStore is the storage bucket holding project images. Writes run as
// the signed in user whose access token is passed in.
type ImageStore interface {
	UploadProjectImage(accessToken, filename, contentType string, data []byte) (string, string, error)
	PathFromPublicURL(publicURL string) (string, bool)
	DeleteFile(accessToken, storagePath string) error
}

type ImageService struct {
	store  ImageStore
	logger zerolog.Logger
}

func NewImageService(store ImageStore) *ImageService {
	return &ImageService{
		store:  store,
		logger: logging.Component("images"),
	}
}

// Upload stores an image and returns its public URL.
func (s *ImageService) Upload(accessToken string, image *Upload) (string, error) {
	if len(image.Data) == 0 {
		return "", errs.NewValidationError("image", "image file is empty")
	}
	if len(image.Data) > MaxImageBytes {
		return "", errs.NewValidationError("image", fmt.Sprintf("image is larger than %d MB", MaxImageBytes>>20))
	}

	contentType := image.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(image.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errs.NewValidationError("image", "file is not an image")
	}

	storagePath, publicURL, err := s.store.UploadProjectImage(accessToken, image.Filename, contentType, image.Data)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	s.logger.Info().Str("path", storagePath).Msg("project image uploaded")
	return publicURL, nil
}

// Remove deletes the stored object behind publicURL. URLs outside the bucket
// are left alone; failures are only logged.
func (s *ImageService) Remove(accessToken, publicURL string) {
	storagePath, ok := s.store.PathFromPublicURL(publicURL)
	if !ok {
		return
	}
	if err := s.store.DeleteFile(accessToken, storagePath); err != nil {
		s.logger.Warn().Err(err).Str("path", storagePath).Msg("failed to remove project image")
		return
	}
	s.logger.Info().Str("path", storagePath).Msg("project image removed")
}
