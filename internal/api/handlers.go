package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"brandpilot/internal/models"
	"brandpilot/internal/service/generator"
	"brandpilot/internal/store"
)

type Generator interface {
	Submit(ctx context.Context, req generator.Request) error
}

type Workspace interface {
	ProjectContext(ctx context.Context) (models.ProjectContext, error)
	SaveProjectContext(ctx context.Context, pc models.ProjectContext) error
	AssetPath(ctx context.Context, name string) (string, error)
}

// Handler wires HTTP routes to the conversation store and the generation
// controller.
type Handler struct {
	conversation  *store.Conversation
	generator     Generator
	workspace     Workspace
	submitTimeout time.Duration
}

// NewHandler constructs a Handler instance.
func NewHandler(conv *store.Conversation, gen Generator, ws Workspace, submitTimeout time.Duration) *Handler {
	if submitTimeout <= 0 {
		submitTimeout = 15 * time.Minute
	}
	return &Handler{
		conversation:  conv,
		generator:     gen,
		workspace:     ws,
		submitTimeout: submitTimeout,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/healthz", h.healthz)
	api.GET("/conversation", h.getConversation)
	api.DELETE("/conversation", h.clearConversation)
	api.POST("/conversation/msg", h.captureInput)
	api.GET("/context", h.getProjectContext)
	api.PUT("/context", h.setProjectContext)
	api.GET("/media/:name", h.serveMedia)
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getConversation(c *gin.Context) {
	messages := h.conversation.Messages()
	if messages == nil {
		messages = make([]models.Message, 0)
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"busy":     h.conversation.Busy(),
	})
}

func (h *Handler) clearConversation(c *gin.Context) {
	h.conversation.Clear()
	c.Status(http.StatusNoContent)
}

func (h *Handler) getProjectContext(c *gin.Context) {
	pc, err := h.workspace.ProjectContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pc)
}

func (h *Handler) setProjectContext(c *gin.Context) {
	var pc models.ProjectContext
	if err := c.ShouldBindJSON(&pc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.workspace.SaveProjectContext(c.Request.Context(), pc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) serveMedia(c *gin.Context) {
	name := c.Param("name")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset name"})
		return
	}
	path, err := h.workspace.AssetPath(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.File(path)
}

// User input interface
type inputRequest struct {
	Content    string                  `json:"content"`
	Mode       string                  `json:"mode"`
	Attachment *models.MediaAttachment `json:"attachment"`
}

func (h *Handler) captureInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	mode, err := models.ParseGenerationMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" && req.Attachment == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content or attachment is required"})
		return
	}
	if h.conversation.Busy() {
		c.JSON(http.StatusConflict, gin.H{"error": "a generation is already in progress"})
		return
	}
	pc, err := h.workspace.ProjectContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	submitCtx, cancel := context.WithTimeout(c.Request.Context(), h.submitTimeout)
	defer cancel()
	// SSE Request construction
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if event != "" {
			if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := sendEvent("ack", gin.H{
		"mode":    string(mode),
		"content": strings.TrimSpace(req.Content),
	}); err != nil {
		return
	}

	before := h.conversation.Len()
	err = h.generator.Submit(submitCtx, generator.Request{
		Prompt:     req.Content,
		Attachment: req.Attachment,
		Mode:       mode,
		Context:    pc,
	})
	if err != nil {
		msg := err.Error()
		if errors.Is(err, generator.ErrBusy) {
			msg = "a generation is already in progress"
		}
		_ = sendEvent("error", gin.H{"message": msg})
		return
	}

	messages := h.conversation.Messages()
	payload := gin.H{"busy": h.conversation.Busy()}
	if len(messages) > before {
		turns := messages[before:]
		payload["user_message"] = turns[0]
		if len(turns) > 1 {
			payload["ai_message"] = turns[len(turns)-1]
		}
	}
	_ = sendEvent("done", payload)
}
