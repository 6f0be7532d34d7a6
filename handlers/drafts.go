package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course_market_backend/draft"
	"course_market_backend/logger"
	"course_market_backend/middleware"
)

// DraftHandler autosaves the wizard state between page loads.
type DraftHandler struct {
	store draft.Store
	log   *logger.Logger
}

func NewDraftHandler(store draft.Store, log *logger.Logger) *DraftHandler {
	return &DraftHandler{store: store, log: log.With("handler", "drafts")}
}

type draftResponse struct {
	Draft    draft.Draft `json:"draft"`
	StepName string      `json:"step_name"`
	Progress float64     `json:"progress"`
	Key      string      `json:"key,omitempty"`
}

func respondDraft(c *gin.Context, d draft.Draft, key string) {
	c.JSON(http.StatusOK, draftResponse{
		Draft:    d,
		StepName: d.Step.Name(),
		Progress: d.Progress(),
		Key:      key,
	})
}

func (h *DraftHandler) Get(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	d, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load draft", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load draft"})
		return
	}
	respondDraft(c, d, "")
}

// Put replaces the saved draft wholesale.
func (h *DraftHandler) Put(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	d := draft.New()
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !d.Step.Valid() {
		d.Step = draft.StepBasics
	}

	if err := h.store.Save(c.Request.Context(), userID, d); err != nil {
		h.log.Error("failed to save draft", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save draft"})
		return
	}
	respondDraft(c, d, "")
}

// Patch applies one edit operation to the saved draft. The key of a newly
// added section, lesson or content item is returned alongside the draft.
func (h *DraftHandler) Patch(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	ctx := c.Request.Context()

	var op draft.Op
	if err := c.ShouldBindJSON(&op); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.store.Load(ctx, userID)
	if err != nil {
		h.log.Error("failed to load draft", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load draft"})
		return
	}

	next, key, err := d.Apply(op)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Save(ctx, userID, next); err != nil {
		h.log.Error("failed to save draft", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save draft"})
		return
	}
	respondDraft(c, next, key)
}

// Delete drops the saved draft, e.g. when the author leaves without saving.
func (h *DraftHandler) Delete(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	if err := h.store.Discard(c.Request.Context(), userID); err != nil {
		h.log.Error("failed to discard draft", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to discard draft"})
		return
	}
	c.Status(http.StatusNoContent)
}
