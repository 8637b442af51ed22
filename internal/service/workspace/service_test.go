package workspace

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"brandpilot/internal/config"
	"brandpilot/internal/models"
	"brandpilot/internal/storage"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	svc, err := NewService(db, t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestProjectContextRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pc, err := svc.ProjectContext(ctx)
	if err != nil {
		t.Fatalf("load empty context: %v", err)
	}
	if pc != (models.ProjectContext{}) {
		t.Fatalf("expected zero context before save, got %#v", pc)
	}

	want := models.ProjectContext{BrandName: "LuxNova", Industry: "Jewelry", Tone: "Refined"}
	if err := svc.SaveProjectContext(ctx, want); err != nil {
		t.Fatalf("save context: %v", err)
	}
	got, err := svc.ProjectContext(ctx)
	if err != nil {
		t.Fatalf("load context: %v", err)
	}
	if got != want {
		t.Fatalf("context mismatch: got %#v want %#v", got, want)
	}

	// Second save must update, not duplicate.
	want.Tone = "Playful"
	if err := svc.SaveProjectContext(ctx, want); err != nil {
		t.Fatalf("resave context: %v", err)
	}
	got, err = svc.ProjectContext(ctx)
	if err != nil {
		t.Fatalf("reload context: %v", err)
	}
	if got.Tone != "Playful" {
		t.Fatalf("expected updated tone, got %q", got.Tone)
	}
}

func TestSaveGeneratedWritesFileAndIndex(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	url, err := svc.SaveGenerated(ctx, "image", []byte("fake-png"), "image/png")
	if err != nil {
		t.Fatalf("save generated: %v", err)
	}
	if !strings.HasPrefix(url, MediaURLPrefix) || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected media url: %q", url)
	}

	name := strings.TrimPrefix(url, MediaURLPrefix)
	path, err := svc.AssetPath(ctx, name)
	if err != nil {
		t.Fatalf("asset path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "fake-png" {
		t.Fatalf("stored bytes mismatch: %q", data)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM media_assets`).Scan(&count); err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one index row, got %d", count)
	}
}

func TestSaveGeneratedRejectsEmptyData(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SaveGenerated(context.Background(), "image", nil, "image/png"); err == nil {
		t.Fatalf("expected error for empty data")
	}
}

func TestAssetPathUnknownName(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.AssetPath(context.Background(), "nope.png"); err == nil {
		t.Fatalf("expected error for unknown asset")
	}
}

func TestCleanupExpiredAssets(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	url, err := svc.SaveGenerated(ctx, "video", []byte("fake-mp4"), "video/mp4")
	if err != nil {
		t.Fatalf("save generated: %v", err)
	}
	name := strings.TrimPrefix(url, MediaURLPrefix)
	path, err := svc.AssetPath(ctx, name)
	if err != nil {
		t.Fatalf("asset path: %v", err)
	}

	// Force the asset into the past and run the janitor once.
	if _, err := db.Exec(`UPDATE media_assets SET expires_at = ?`, time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("expire asset: %v", err)
	}
	if err := svc.cleanupExpiredAssets(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected media file removed, stat err: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM media_assets`).Scan(&count); err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected index emptied, got %d rows", count)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		kind, mime, want string
	}{
		{"image", "image/png", ".png"},
		{"image", "image/jpeg", ".jpg"},
		{"image", "image/webp", ".webp"},
		{"video", "video/mp4", ".mp4"},
		{"video", "video/webm", ".webm"},
		{"video", "", ".mp4"},
		{"image", "", ".png"},
	}
	for _, tc := range cases {
		if got := extensionFor(tc.kind, tc.mime); got != tc.want {
			t.Fatalf("extensionFor(%q, %q) = %q, want %q", tc.kind, tc.mime, got, tc.want)
		}
	}
}
