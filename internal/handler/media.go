package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/events"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/internal/task"
	"github.com/localfirst-ai/hybrid-assistant/internal/vision"
	"github.com/localfirst-ai/hybrid-assistant/internal/worker"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

const maxImageBytes = 10 << 20 // 10MB upload cap

// MediaHandler accepts task progress photos and schedules their analysis
// on the worker pool. Analysis runs off the request path; the upload is
// acknowledged as soon as the image is on disk and queued.
type MediaHandler struct {
	visionSvc vision.Service
	tasks     *task.Store
	pool      *worker.Pool
	pub       events.Publisher
	imageDir  string
	logger    *logger.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(visionSvc vision.Service, tasks *task.Store, pool *worker.Pool, pub events.Publisher, imageDir string, log *logger.Logger) *MediaHandler {
	if pub == nil {
		pub = events.Noop{}
	}
	return &MediaHandler{
		visionSvc: visionSvc,
		tasks:     tasks,
		pool:      pool,
		pub:       pub,
		imageDir:  imageDir,
		logger:    log,
	}
}

// Upload handles POST /api/v1/media/images
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.visionSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "vision service is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	taskID, err := strconv.ParseInt(r.FormValue("task_id"), 10, 64)
	if err != nil || taskID <= 0 {
		writeError(w, http.StatusBadRequest, "task_id is required")
		return
	}
	if _, err := h.tasks.Get(taskID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "task lookup failed")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	imagePath, mimeType, err := h.saveImage(file, header)
	if err != nil {
		h.logger.Error("failed to store uploaded image", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	job := worker.Job{
		Name: "media-analysis",
		Run: func(ctx context.Context) error {
			return h.analyze(ctx, taskID, imagePath, mimeType)
		},
	}
	if err := h.pool.Submit(job); err != nil {
		writeError(w, http.StatusServiceUnavailable, "analysis queue is full, try again later")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":     "accepted",
		"task_id":    taskID,
		"image_path": imagePath,
	})
}

func (h *MediaHandler) saveImage(file multipart.File, header *multipart.FileHeader) (string, string, error) {
	if err := os.MkdirAll(h.imageDir, 0o755); err != nil {
		return "", "", err
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	imagePath := filepath.Join(h.imageDir, uuid.New().String()+ext)

	dst, err := os.Create(imagePath)
	if err != nil {
		return "", "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxImageBytes)); err != nil {
		os.Remove(imagePath)
		return "", "", err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return imagePath, mimeType, nil
}

// analyze runs on the worker pool: read the stored image, describe it,
// append the result to the task timeline, and journal it.
func (h *MediaHandler) analyze(ctx context.Context, taskID int64, imagePath, mimeType string) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read stored image: %w", err)
	}

	analysis, err := h.visionSvc.Analyze(ctx, image, mimeType)
	if err != nil {
		return fmt.Errorf("analyze image: %w", err)
	}
	analysis.ImagePath = imagePath

	if err := h.tasks.UpdateProgress(ctx, taskID, *analysis); err != nil {
		return fmt.Errorf("record task progress: %w", err)
	}

	if err := h.pub.Publish(ctx, events.SubjectMediaAnalyzed, struct {
		TaskID   int64                `json:"task_id"`
		Analysis *model.MediaAnalysis `json:"analysis"`
	}{TaskID: taskID, Analysis: analysis}); err != nil {
		h.logger.Warn("media journal publish failed", zap.Error(err))
	}
	return nil
}
