package services

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/memory"
)

func TestThumbnailService(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024", "03"), 0o755))
	src := imaging.New(40, 60, color.NRGBA{G: 180, A: 255})
	require.NoError(t, imaging.Save(src, filepath.Join(root, "2024", "03", "tall.png")))

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := memory.NewRepository("https://example.test")
	repo.AddAttachment(1, "2024/03/tall.png", "image/png", created)
	repo.AddAttachment(2, "2024/03/brochure.pdf", "application/pdf", created)
	repo.AddAttachment(3, "2024/03/gone.png", "image/png", created)

	svc := NewThumbnailService(repo, media.NewThumbnailer(root, 32), logging.NewNopLogger(), nil)
	ctx := context.Background()

	data, err := svc.Thumbnail(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = svc.Thumbnail(ctx, 2)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))

	_, err = svc.Thumbnail(ctx, 3)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	_, err = svc.Thumbnail(ctx, 99)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	_, err = svc.Thumbnail(ctx, 0)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
}
