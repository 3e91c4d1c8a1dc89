package workfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xpurge/pkg/logger"
	"xpurge/pkg/twitter"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "work.json")
	mgr := NewManager(path, logger.NewNopLogger())

	batch := []twitter.Tweet{
		{ID: "1", CreatedAt: "2020-01-01T00:00:00.000Z", PublicMetrics: &twitter.PublicMetrics{LikeCount: 3}},
		{ID: "2", Attachments: &twitter.Attachments{MediaKeys: []string{"3_99"}}},
	}
	if err := mgr.Save(batch); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "1" || loaded[1].ID != "2" {
		t.Fatalf("unexpected batch: %+v", loaded)
	}
	if loaded[0].PublicMetrics.LikeCount != 3 {
		t.Errorf("Expected like_count 3, got %d", loaded[0].PublicMetrics.LikeCount)
	}
	if loaded[1].Attachments.MediaKeys[0] != "3_99" {
		t.Errorf("Expected media key to survive, got %v", loaded[1].Attachments)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain")
	}
}

func TestSaveOverwrites(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "work.json"), logger.NewNopLogger())

	_ = mgr.Save([]twitter.Tweet{{ID: "1"}, {ID: "2"}})
	if err := mgr.Save(nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, _ := os.ReadFile(mgr.Path())
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected an empty JSON array, got %q", data)
	}
}

func TestLoadMissing(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "none.json"), logger.NewNopLogger())

	batch, err := mgr.Load()
	if err != nil || len(batch) != 0 {
		t.Fatalf("Expected empty batch, got %v (%v)", batch, err)
	}
	if mgr.Exists() {
		t.Error("Exists should be false")
	}
	if err := mgr.Delete(); err != nil {
		t.Errorf("Delete of a missing file should succeed, got %v", err)
	}
}
