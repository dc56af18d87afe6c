package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/remote"
)

type handler struct {
	backend remote.Backend
	log     *zap.Logger
}

type syncRequest struct {
	Action    string            `json:"action"`
	Reminders *[]model.Reminder `json:"reminders"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"fileId,omitempty"`
	Action  string `json:"action"`
	Count   int    `json:"count"`
}

type loadResponse struct {
	Success   bool             `json:"success"`
	Reminders []model.Reminder `json:"reminders"`
	LastSync  *time.Time       `json:"lastSync"`
	Version   string           `json:"version,omitempty"`
	Message   string           `json:"message,omitempty"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *handler) sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	switch req.Action {
	case "save":
		if req.Reminders == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reminders data is required for save action"})
			return
		}
		h.save(c, *req.Reminders)
	case "load":
		h.load(c)
	case "delete":
		h.delete(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Use: save, load, or delete"})
	}
}

func (h *handler) save(c *gin.Context, reminders []model.Reminder) {
	for _, r := range reminders {
		if err := r.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	ident := identityFrom(c)
	receipt, err := h.backend.Save(c.Request.Context(), ident, reminders)
	if err != nil {
		h.fail(c, "save", err)
		return
	}
	c.JSON(http.StatusOK, saveResponse{Success: true, FileID: receipt.FileID, Action: receipt.Action, Count: receipt.Count})
}

func (h *handler) load(c *gin.Context) {
	backup, err := h.backend.Load(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, "load", err)
		return
	}
	reminders := backup.Reminders
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	c.JSON(http.StatusOK, loadResponse{
		Success:   true,
		Reminders: reminders,
		LastSync:  backup.LastSync,
		Version:   backup.Version,
		Message:   backup.Message,
	})
}

func (h *handler) delete(c *gin.Context) {
	msg, err := h.backend.DeleteAll(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, deleteResponse{Success: true, Message: msg})
}

func (h *handler) fail(c *gin.Context, op string, err error) {
	h.log.Warn("sync request failed", zap.String("op", op), zap.String("user_id", identityFrom(c).UserID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
