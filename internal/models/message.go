package models

import "time"

// Message is one entry in the conversation transcript.

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageType selects how the client renders a transcript entry.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeVideo    MessageType = "video"
	TypeResearch MessageType = "research"
)

// Source is one citation backing a research answer.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Metadata carries the type-specific payload of an assistant turn.
// At most one of ImageURL, VideoURL and Sources is set, and only when the
// message type matches it.
type Metadata struct {
	ImageURL string   `json:"image_url,omitempty"`
	VideoURL string   `json:"video_url,omitempty"`
	Sources  []Source `json:"sources,omitempty"`
	Thinking bool     `json:"thinking,omitempty"`
}

type Message struct {
	ID          string            `json:"id"`
	Role        Role              `json:"role"`
	Type        MessageType       `json:"type"`
	Content     string            `json:"content"`
	Attachments []MediaAttachment `json:"attachments,omitempty"`
	Metadata    *Metadata         `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
