package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/internal/storage"
	"github.com/liuxin327/heartbeat/pkg/errors"
	"github.com/liuxin327/heartbeat/pkg/response"
)

const multipartMaxMemory = 32 << 20

// CheckInHandler records task completions with optional photos and serves the
// daily dashboard.
type CheckInHandler struct {
	checkIns *services.CheckInService
	store    *storage.LocalStore
}

func NewCheckInHandler(checkIns *services.CheckInService, store *storage.LocalStore) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns, store: store}
}

// POST /api/checkins
// Accepts multipart form data: task_id, text, and up to three photo files.
func (h *CheckInHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(multipartMaxMemory); err != nil {
		response.Error(c, errors.NewBadRequest("invalid multipart form"))
		return
	}

	taskID := c.PostForm("task_id")
	if taskID == "" {
		response.Error(c, errors.NewBadRequest("task_id is required"))
		return
	}

	var files []*multipart.FileHeader
	if form := c.Request.MultipartForm; form != nil {
		files = form.File["photos"]
	}
	if len(files) > services.MaxCheckInPhotos {
		response.Error(c, errors.NewBadRequest(fmt.Sprintf("at most %d photos per check-in", services.MaxCheckInPhotos)))
		return
	}

	photoURLs, err := h.savePhotos(userID, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	checkIn, err := h.checkIns.Create(requestContext(c), userID, services.CreateCheckInInput{
		TaskID:    taskID,
		Text:      c.PostForm("text"),
		PhotoURLs: photoURLs,
	})
	if err != nil {
		// The check-in row failed, so the stored photos are orphans.
		for _, url := range photoURLs {
			_ = h.store.Remove(url)
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, checkIn)
}

func (h *CheckInHandler) savePhotos(userID string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for i, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, errors.NewBadRequest("could not read uploaded photo")
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.NewBadRequest("could not read uploaded photo")
		}

		url, err := h.store.SavePhoto(userID, i, data)
		if err != nil {
			for _, stored := range urls {
				_ = h.store.Remove(stored)
			}
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// GET /api/checkins/:id
func (h *CheckInHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	checkIn, err := h.checkIns.GetByID(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, checkIn)
}

// GET /api/tasks/:id/checkins
func (h *CheckInHandler) ListByTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	checkIns, err := h.checkIns.ListByTask(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, checkIns)
}

// GET /api/dashboard?date=2006-01-02
func (h *CheckInHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, errors.NewBadRequest("date must be formatted YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	dashboard, err := h.checkIns.Dashboard(requestContext(c), userID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}
