package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"brandpilot/internal/models"
)

// Service owns the single-workspace settings (project context) and the
// generated-media library backed by the database index.
type Service struct {
	db       *sql.DB
	mediaDir string
	mediaTTL time.Duration
}

func NewService(db *sql.DB, mediaDir string, mediaTTL time.Duration) (*Service, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if mediaDir == "" {
		return nil, errors.New("media dir is required")
	}
	if mediaTTL <= 0 {
		mediaTTL = DefaultMediaTTL
	}
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Service{db: db, mediaDir: mediaDir, mediaTTL: mediaTTL}, nil
}

// ProjectContext returns the stored brand settings, or the zero value when
// none have been saved yet.
func (s *Service) ProjectContext(ctx context.Context) (models.ProjectContext, error) {
	var pc models.ProjectContext
	err := s.db.QueryRowContext(ctx,
		`SELECT brand_name, industry, tone FROM project_context WHERE id = 1`,
	).Scan(&pc.BrandName, &pc.Industry, &pc.Tone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ProjectContext{}, nil
		}
		return models.ProjectContext{}, fmt.Errorf("load project context: %w", err)
	}
	return pc, nil
}

// SaveProjectContext upserts the single settings row.
func (s *Service) SaveProjectContext(ctx context.Context, pc models.ProjectContext) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE project_context SET brand_name = ?, industry = ?, tone = ?, updated_at = ? WHERE id = 1`,
		pc.BrandName, pc.Industry, pc.Tone, now,
	)
	if err != nil {
		return fmt.Errorf("update project context: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project context: %w", err)
	}
	if affected == 0 {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO project_context (id, brand_name, industry, tone, updated_at) VALUES (1, ?, ?, ?, ?)`,
			pc.BrandName, pc.Industry, pc.Tone, now,
		); err != nil {
			return fmt.Errorf("insert project context: %w", err)
		}
	}
	return nil
}
