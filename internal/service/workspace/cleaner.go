package workspace

import (
	"context"
	"log"
	"os"
	"time"
)

const (
	DefaultMediaTTL             = 7 * 24 * time.Hour
	DefaultMediaCleanupInterval = time.Hour
)

// StartMediaCleaner launches the background janitor that removes expired
// generated assets and their index rows.
func (s *Service) StartMediaCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultMediaCleanupInterval
	}
	go s.cleanupLoop(ctx, interval)
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.cleanupExpiredAssets(); err != nil {
				log.Printf("cleanup media assets error: %v", err)
			}
		}
	}
}

func (s *Service) cleanupExpiredAssets() error {
	rows, err := s.db.Query(`
		SELECT id, stored_path FROM media_assets
		WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return err
	}
	defer rows.Close()

	type assetRow struct {
		id   int64
		path string
	}
	var assets []assetRow
	for rows.Next() {
		var ar assetRow
		if err := rows.Scan(&ar.id, &ar.path); err != nil {
			return err
		}
		assets = append(assets, ar)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, a := range assets {
		if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove media file %s failed: %v", a.path, err)
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM media_assets WHERE id = ?`, a.id); err != nil {
			log.Printf("delete media asset record %d failed: %v", a.id, err)
		}
	}
	return nil
}
