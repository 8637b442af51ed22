package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"brandpilot/internal/models"
)

// MediaURLPrefix is the route generated assets are served under.
const MediaURLPrefix = "/api/media/"

// SaveGenerated writes generated media bytes into the library and returns the
// URL the client loads the asset from.
func (s *Service) SaveGenerated(ctx context.Context, kind string, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("media data is empty")
	}
	name := fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), extensionFor(kind, mimeType))
	path := filepath.Join(s.mediaDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	now := time.Now().UTC()
	asset := models.MediaAsset{
		Kind:       kind,
		FileName:   name,
		StoredPath: path,
		MimeType:   mimeType,
		Size:       int64(len(data)),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.mediaTTL),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO media_assets (kind, file_name, stored_path, mime_type, size, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		asset.Kind, asset.FileName, asset.StoredPath, asset.MimeType, asset.Size, asset.CreatedAt, asset.ExpiresAt,
	); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("record media asset: %w", err)
	}
	return MediaURLPrefix + name, nil
}

// AssetPath resolves a stored file name to its on-disk path. Lookup goes
// through the index, so path traversal in the name cannot escape the library.
func (s *Service) AssetPath(ctx context.Context, name string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT stored_path FROM media_assets WHERE file_name = ?`, name,
	).Scan(&path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("lookup media asset: %w", err)
	}
	return path, nil
}

func extensionFor(kind, mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return ".jpg"
	case strings.Contains(mimeType, "webp"):
		return ".webp"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	case strings.Contains(mimeType, "mp4"):
		return ".mp4"
	}
	if kind == "video" {
		return ".mp4"
	}
	return ".png"
}
