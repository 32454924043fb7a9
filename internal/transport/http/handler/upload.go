package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"courseassist/internal/app"
	"courseassist/internal/logging"
	"courseassist/internal/monitoring"
	"courseassist/internal/transport/http/response"
)

const kindTooLarge = "file_too_large"

type UploadHandler struct {
	upload   *app.UploadService
	metrics  *monitoring.Metrics
	maxBytes int64
	log      zerolog.Logger
}

func NewUploadHandler(upload *app.UploadService, metrics *monitoring.Metrics, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &UploadHandler{
		upload:   upload,
		metrics:  metrics,
		maxBytes: maxBytes,
		log:      logging.NewLogger("upload_handler"),
	}
}

// Upload serves both /upload_syllabus and /uploadAssignment.
func (h *UploadHandler) Upload(c *gin.Context) {
	filename, data, ok := h.readFile(c)
	if !ok {
		return
	}

	msg, err := h.upload.Upload(c.Request.Context(), filename, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.count(c, "ok")
	response.Message(c, http.StatusOK, msg)
}

func (h *UploadHandler) Outline(c *gin.Context) {
	filename, data, ok := h.readFile(c)
	if !ok {
		return
	}

	sections, err := h.upload.Outline(filename, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.count(c, "ok")
	response.OK(c, gin.H{"sections": sections})
}

func (h *UploadHandler) readFile(c *gin.Context) (string, []byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		h.fail(c, &app.UploadError{Kind: app.KindMissingFile, Err: app.ErrMissingFile})
		return "", nil, false
	}
	if file.Size > h.maxBytes {
		h.count(c, kindTooLarge)
		response.Error(c, http.StatusRequestEntityTooLarge, kindTooLarge,
			fmt.Sprintf("file too large (max %d MB)", h.maxBytes>>20))
		return "", nil, false
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open uploaded file failed: %w", err))
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		h.fail(c, fmt.Errorf("read uploaded file failed: %w", err))
		return "", nil, false
	}
	return file.Filename, data, true
}

func (h *UploadHandler) fail(c *gin.Context, err error) {
	kind := app.KindOf(err)
	h.count(c, string(kind))

	message := err.Error()
	if kind == app.KindInternal {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("upload failed")
		message = "upload failed"
	} else {
		h.log.Warn().Err(err).Str("kind", string(kind)).Str("path", c.FullPath()).Msg("upload rejected")
	}
	response.Error(c, uploadStatus(kind), string(kind), message)
}

func (h *UploadHandler) count(c *gin.Context, result string) {
	if h.metrics != nil {
		h.metrics.UploadsTotal.WithLabelValues(c.FullPath(), result).Inc()
	}
}

func uploadStatus(kind app.UploadErrorKind) int {
	switch kind {
	case app.KindMissingFile:
		return http.StatusBadRequest
	case app.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case app.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

