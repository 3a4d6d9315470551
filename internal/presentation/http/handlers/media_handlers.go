package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services"
	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services/engine"
	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
	"github.com/GarethCitcom/orphaned-acf-media/internal/presentation/http/middleware"
)

// MediaHandlers serves the scan, delete and cache routes
type MediaHandlers struct {
	scans       *engine.ScanService
	deletions   *engine.DeletionService
	thumbnails  *services.ThumbnailService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	upgrader    websocket.Upgrader
}

// NewMediaHandlers creates media handlers with injected dependencies
func NewMediaHandlers(
	scans *engine.ScanService,
	deletions *engine.DeletionService,
	thumbnails *services.ThumbnailService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *MediaHandlers {
	return &MediaHandlers{
		scans:       scans,
		deletions:   deletions,
		thumbnails:  thumbnails,
		logger:      logger,
		perfTracker: perfTracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// GetOrphaned handles GET /api/v1/media/orphaned - one page of a scan
func (h *MediaHandlers) GetOrphaned(c *gin.Context) {
	var req engine.ScanRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.AbortWithError(c, perr.Validationf("query", "Invalid query parameters"))
		return
	}

	page, err := h.scans.ScanPage(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetThumbnail handles GET /api/v1/media/:id/thumbnail
func (h *MediaHandlers) GetThumbnail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.AbortWithError(c, perr.Validationf("id", "id must be an integer"))
		return
	}

	data, err := h.thumbnails.Thumbnail(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/webp", data)
}

// PostDelete handles POST /api/v1/media/delete. A single id answers with
// the single-item shape, several ids with the itemized bulk shape.
func (h *MediaHandlers) PostDelete(c *gin.Context) {
	var req engine.DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, perr.Validationf("ids", "Invalid request format"))
		return
	}

	if len(req.IDs) == 1 {
		result, err := h.deletions.DeleteOne(c.Request.Context(), req.IDs[0])
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := h.deletions.DeleteMany(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostDeleteAllSafe handles POST /api/v1/media/delete-all-safe - one batch
func (h *MediaHandlers) PostDeleteAllSafe(c *gin.Context) {
	var req engine.BatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithError(c, perr.Validationf("batchSize", "Invalid request format"))
			return
		}
	}

	progress, err := h.deletions.DeleteAllSafeBatch(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// BatchSocket handles GET /api/v1/media/delete-all-safe/ws. Each client
// message {batchSize, batchOffset} runs one batch and gets one reply.
func (h *MediaHandlers) BatchSocket(c *gin.Context) {
	logger := h.logger.WithContext(c.Request.Context(), logging.ChannelDeletion)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)

	marker := h.perfTracker.StartOperation("batch_socket")
	defer marker.Complete()
	start := time.Now()
	batches := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Batch socket closed unexpectedly", "error", err.Error())
			}
			break
		}

		var req engine.BatchRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if werr := conn.WriteJSON(perr.WireFrom(perr.Validationf("batchSize", "Invalid request format"))); werr != nil {
				break
			}
			continue
		}

		progress, err := h.deletions.DeleteAllSafeBatch(c.Request.Context(), req)
		if err != nil {
			if werr := conn.WriteJSON(perr.WireFrom(err)); werr != nil {
				break
			}
			continue
		}
		batches++
		if err := conn.WriteJSON(progress); err != nil {
			break
		}
		if !progress.HasMore {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, progress.Message))
			break
		}
	}
	marker.AddMetadata("batches", batches)
	logger.Info("Batch socket finished", "batches", batches, "duration", time.Since(start))
}

// PostClearCache handles POST /api/v1/cache/clear
func (h *MediaHandlers) PostClearCache(c *gin.Context) {
	h.deletions.ClearCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
