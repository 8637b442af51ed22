package generator

import (
	"context"
	"errors"
	"log"
	"strings"

	"brandpilot/internal/models"
	"brandpilot/internal/service/ai"
	"brandpilot/internal/store"
)

// Controller owns the generation-request lifecycle: it validates a
// submission, dispatches it to the capability matching the mode, keeps the
// transient video placeholder honest, and reconciles the outcome into the
// conversation store. Every accepted submission terminates in exactly one
// assistant record, and the busy gate is always released.

// PlaceholderID is reserved for the transient video placeholder and never
// assigned to a real message.
const PlaceholderID = "pending-video"

const (
	genericFaultText = "An error occurred while processing your request. Please try again."
	imageAbsentText  = "Failed to generate image. Please try again."
	videoFailedText  = "Video generation failed or was cancelled."
	placeholderText  = "Generating your video. This can take a few minutes..."
)

var (
	// ErrEmptySubmission rejects a submit with neither prompt text nor an
	// attachment. The store is left untouched.
	ErrEmptySubmission = errors.New("empty submission")
	// ErrBusy rejects a submit while another lifecycle is in flight.
	ErrBusy = errors.New("generation already in progress")
)

// Capabilities is the black-box generation surface the controller dispatches
// to.
type Capabilities interface {
	Strategy(ctx context.Context, prompt, contextSummary string, attachments []models.MediaAttachment) (string, error)
	Research(ctx context.Context, query string) (*ai.ResearchResult, error)
	Image(ctx context.Context, prompt string, reference *models.MediaAttachment) ([]byte, string, error)
	Video(ctx context.Context, prompt string) ([]byte, string, error)
}

// MediaSaver persists generated media and returns the URL the client loads
// it from.
type MediaSaver interface {
	SaveGenerated(ctx context.Context, kind string, data []byte, mimeType string) (string, error)
}

// Request is one user submission.
type Request struct {
	Prompt     string
	Attachment *models.MediaAttachment
	Mode       models.GenerationMode
	Context    models.ProjectContext
}

type handlerFunc func(ctx context.Context, prompt string, req Request) models.Message

type Controller struct {
	store    *store.Conversation
	caps     Capabilities
	media    MediaSaver
	handlers map[models.GenerationMode]handlerFunc
}

func NewController(conv *store.Conversation, caps Capabilities, media MediaSaver) *Controller {
	c := &Controller{
		store: conv,
		caps:  caps,
		media: media,
	}
	c.handlers = map[models.GenerationMode]handlerFunc{
		models.ModeCopywriting: c.copywriting,
		models.ModeResearch:    c.research,
		models.ModeVisual:      c.visual,
		models.ModeVideo:       c.video,
	}
	return c
}

// Submit runs one request lifecycle. Validation rejections return a sentinel
// error without touching the store; an accepted submission always appends one
// user turn and one terminal assistant turn, releasing the busy gate on every
// path.
func (c *Controller) Submit(ctx context.Context, req Request) error {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" && req.Attachment == nil {
		return ErrEmptySubmission
	}
	handler, ok := c.handlers[req.Mode]
	if !ok {
		return errors.New("unknown generation mode")
	}
	if !c.store.TryBegin() {
		return ErrBusy
	}
	defer c.store.End()

	userMsg := models.Message{
		Role:    models.RoleUser,
		Type:    models.TypeText,
		Content: prompt,
	}
	if req.Attachment != nil {
		userMsg.Attachments = []models.MediaAttachment{*req.Attachment}
	}
	c.store.Append(userMsg)

	c.store.Append(handler(ctx, prompt, req))
	return nil
}

func (c *Controller) copywriting(ctx context.Context, prompt string, req Request) models.Message {
	var attachments []models.MediaAttachment
	if req.Attachment != nil {
		attachments = []models.MediaAttachment{*req.Attachment}
	}
	text, err := c.caps.Strategy(ctx, prompt, req.Context.Summary(), attachments)
	if err != nil {
		log.Printf("strategy capability failed: %v", err)
		return assistantText(genericFaultText)
	}
	return models.Message{
		Role:    models.RoleAssistant,
		Type:    models.TypeText,
		Content: text,
	}
}

func (c *Controller) research(ctx context.Context, prompt string, _ Request) models.Message {
	result, err := c.caps.Research(ctx, prompt)
	if err != nil {
		log.Printf("research capability failed: %v", err)
		return assistantText(genericFaultText)
	}
	return models.Message{
		Role:     models.RoleAssistant,
		Type:     models.TypeResearch,
		Content:  result.Text,
		Metadata: &models.Metadata{Sources: result.Sources},
	}
}

func (c *Controller) visual(ctx context.Context, prompt string, req Request) models.Message {
	data, mime, err := c.caps.Image(ctx, prompt, req.Attachment)
	if err != nil {
		log.Printf("image capability failed: %v", err)
		return assistantText(genericFaultText)
	}
	if len(data) == 0 {
		// The model producing no image is a recoverable outcome.
		return assistantText(imageAbsentText)
	}
	url, err := c.media.SaveGenerated(ctx, "image", data, mime)
	if err != nil {
		log.Printf("store generated image failed: %v", err)
		return assistantText(genericFaultText)
	}
	return models.Message{
		Role:     models.RoleAssistant,
		Type:     models.TypeImage,
		Content:  "Here is your generated visual.",
		Metadata: &models.Metadata{ImageURL: url},
	}
}

// video shows a placeholder while the long-running capability settles. The
// deferred removal runs before Submit appends the terminal record, so no
// placeholder survives settlement on any path. Faults and absent results
// share one outcome: the video-specific failure text.
func (c *Controller) video(ctx context.Context, prompt string, _ Request) models.Message {
	c.store.Append(models.Message{
		ID:       PlaceholderID,
		Role:     models.RoleAssistant,
		Type:     models.TypeText,
		Content:  placeholderText,
		Metadata: &models.Metadata{Thinking: true},
	})
	defer c.store.RemoveByID(PlaceholderID)

	data, mime, err := c.caps.Video(ctx, prompt)
	if err != nil {
		log.Printf("video capability failed: %v", err)
		return assistantText(videoFailedText)
	}
	if len(data) == 0 {
		return assistantText(videoFailedText)
	}
	url, err := c.media.SaveGenerated(ctx, "video", data, mime)
	if err != nil {
		log.Printf("store generated video failed: %v", err)
		return assistantText(videoFailedText)
	}
	return models.Message{
		Role:     models.RoleAssistant,
		Type:     models.TypeVideo,
		Content:  "Here is your generated video.",
		Metadata: &models.Metadata{VideoURL: url},
	}
}

func assistantText(text string) models.Message {
	return models.Message{
		Role:    models.RoleAssistant,
		Type:    models.TypeText,
		Content: text,
	}
}
