package models

import "time"

// MediaAsset indexes one generated file stored in the media library.
type MediaAsset struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"` // "image" or "video"
	FileName   string    `json:"file_name"`
	StoredPath string    `json:"stored_path"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
