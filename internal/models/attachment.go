package models

// MediaAttachment is a user-supplied file sent alongside a prompt. Data is
// base64-encoded without a data-URI prefix.
type MediaAttachment struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
	Name     string `json:"name,omitempty"`
}
