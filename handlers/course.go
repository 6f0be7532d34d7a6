package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"course_market_backend/draft"
	"course_market_backend/logger"
	"course_market_backend/middleware"
	"course_market_backend/models"
	"course_market_backend/publish"
	"course_market_backend/viewer"
)

type Publisher interface {
	Publish(ctx context.Context, req publish.Request) (publish.Result, error)
}

type CourseLoader interface {
	Load(ctx context.Context, slug string) (*models.CourseTree, error)
}

type CourseHandler struct {
	publisher    Publisher
	loader       CourseLoader
	drafts       draft.Store
	maxThumbnail int64
	log          *logger.Logger
}

// NewCourseHandler builds the course endpoints. drafts may be nil when no
// autosave store is configured.
func NewCourseHandler(publisher Publisher, loader CourseLoader, drafts draft.Store, maxThumbnail int64, log *logger.Logger) *CourseHandler {
	return &CourseHandler{
		publisher:    publisher,
		loader:       loader,
		drafts:       drafts,
		maxThumbnail: maxThumbnail,
		log:          log.With("handler", "course"),
	}
}

type publishBody struct {
	Draft *draft.Draft `json:"draft"`
}

// PublishCourse stores the draft as a published course.
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	h.store(c, true)
}

// SaveDraft stores the draft as an unpublished course.
func (h *CourseHandler) SaveDraft(c *gin.Context) {
	h.store(c, false)
}

func (h *CourseHandler) store(c *gin.Context, published bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	req := publish.Request{UserID: userID, Published: published}
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		d, file, thumb, err := h.readMultipart(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if file != nil {
			defer file.Close()
		}
		req.Draft, req.Thumbnail = d, thumb
	} else {
		var body publishBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.Draft == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "draft is required"})
			return
		}
		req.Draft = *body.Draft
	}

	res, err := h.publisher.Publish(c.Request.Context(), req)
	if err != nil {
		writePublishError(c, err)
		return
	}

	if h.drafts != nil {
		if err := h.drafts.Discard(c.Request.Context(), userID); err != nil {
			h.log.Warn("failed to discard autosaved draft", "user_id", userID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, models.PublishResponse{
		CourseID:  res.CourseID,
		Slug:      res.Slug,
		URL:       res.URL(),
		Published: res.Published,
	})
}

// readMultipart reads the "draft" JSON field and the optional "thumbnail"
// file. The returned file must be closed by the caller.
func (h *CourseHandler) readMultipart(c *gin.Context) (draft.Draft, multipart.File, *publish.Thumbnail, error) {
	raw := c.PostForm("draft")
	if raw == "" {
		return draft.Draft{}, nil, nil, errors.New("draft is required")
	}
	var d draft.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return draft.Draft{}, nil, nil, fmt.Errorf("invalid draft: %w", err)
	}

	fh, err := c.FormFile("thumbnail")
	if errors.Is(err, http.ErrMissingFile) {
		return d, nil, nil, nil
	}
	if err != nil {
		return draft.Draft{}, nil, nil, fmt.Errorf("invalid thumbnail: %w", err)
	}
	if fh.Size > h.maxThumbnail {
		return draft.Draft{}, nil, nil, fmt.Errorf("Thumbnail must be smaller than %dMB", h.maxThumbnail/(1<<20))
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return draft.Draft{}, nil, nil, errors.New("Thumbnail must be an image")
	}
	file, err := fh.Open()
	if err != nil {
		return draft.Draft{}, nil, nil, fmt.Errorf("invalid thumbnail: %w", err)
	}
	return d, file, &publish.Thumbnail{Filename: fh.Filename, ContentType: contentType, Body: file}, nil
}

func writePublishError(c *gin.Context, err error) {
	var vErr *publish.ValidationError
	var pErr *publish.RemotePermissionError
	var wErr *publish.RemoteWriteError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     vErr.Message,
			"field":     vErr.Field,
			"step":      vErr.Step,
			"step_name": vErr.Step.Name(),
		})
	case errors.As(err, &pErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": pErr.Error(),
			"stage": pErr.Stage,
			"hint":  publish.PermissionHint,
		})
	case errors.As(err, &wErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": wErr.Error(),
			"stage": wErr.Stage,
			"path":  wErr.Path,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GetCourse returns the full course tree for a public slug.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	tree, err := h.loader.Load(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, viewer.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load course data"})
		return
	}
	c.JSON(http.StatusOK, tree)
}
