package services

import (
	"context"
	"errors"
	"io/fs"

	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
)

// ThumbnailService renders previews for the scan view
type ThumbnailService struct {
	repo        repositories.ContentRepository
	thumbnailer *media.Thumbnailer
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewThumbnailService(repo repositories.ContentRepository, thumbnailer *media.Thumbnailer, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ThumbnailService {
	if perfTracker == nil {
		perfTracker = performance.NewTracker(0, nil)
	}
	return &ThumbnailService{repo: repo, thumbnailer: thumbnailer, logger: logger, perfTracker: perfTracker}
}

// Thumbnail returns a WebP preview of the item's file
func (s *ThumbnailService) Thumbnail(ctx context.Context, id int64) ([]byte, error) {
	if id <= 0 {
		return nil, perr.Validationf("id", "id must be positive")
	}
	marker := s.perfTracker.StartOperation("thumbnail")
	defer marker.Complete()

	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		marker.SetError(err)
		return nil, perr.Repository(err, "find item")
	}
	if item == nil {
		return nil, perr.NotFoundf("attachment %d not found", id)
	}

	data, err := s.thumbnailer.Render(item)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, media.ErrNotImage):
		return nil, perr.Validationf("id", "attachment %d is not an image", id)
	case errors.Is(err, media.ErrOutsideRoot), errors.Is(err, fs.ErrNotExist):
		return nil, perr.NotFoundf("file for attachment %d not found", id)
	default:
		marker.SetError(err)
		s.logger.System().Warn("Thumbnail render failed", "itemId", id, "error", err.Error())
		return nil, perr.Repository(err, "render thumbnail")
	}
}
