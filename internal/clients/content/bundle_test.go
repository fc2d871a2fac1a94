package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

func writeBundleFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestBundleReadsYAMLLessonPackage(t *testing.T) {
	dir := t.TempDir()
	lessonID, unitID, loID, exID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	writeBundleFile(t, dir, filepath.Join("lessons", lessonID.String()+".yaml"), fmt.Sprintf(`
lesson_id: %s
unit_id: %s
title: Photosynthesis basics
version: 3
exercises:
  - id: %s
    lo_id: %s
    type: multiple_choice
learning_objectives:
  - id: %s
    title: Explain light reactions
`, lessonID, unitID, exID, loID, loID))

	b := NewBundle(dir)
	pkg, err := b.LessonPackage(lessonID)
	if err != nil {
		t.Fatalf("lesson package: %v", err)
	}
	if pkg.Title != "Photosynthesis basics" || pkg.Version != 3 {
		t.Fatalf("package header: %+v", pkg)
	}
	if len(pkg.Exercises) != 1 || pkg.Exercises[0].ObjectiveID != loID {
		t.Fatalf("exercises: %+v", pkg.Exercises)
	}
	if len(pkg.Objectives) != 1 || pkg.Objectives[0].ID != loID {
		t.Fatalf("objectives: %+v", pkg.Objectives)
	}
}

func TestBundleReadsJSONUnitManifest(t *testing.T) {
	dir := t.TempDir()
	unitID, l1, l2 := uuid.New(), uuid.New(), uuid.New()

	writeBundleFile(t, dir, filepath.Join("units", unitID.String()+".json"), fmt.Sprintf(
		`{"unit_id":%q,"title":"Biology I","lesson_ids":[%q,%q]}`, unitID, l1, l2))

	b := NewBundle(dir)
	manifest, err := b.UnitManifest(unitID)
	if err != nil {
		t.Fatalf("unit manifest: %v", err)
	}
	if manifest.Title != "Biology I" || len(manifest.LessonIDs) != 2 {
		t.Fatalf("manifest: %+v", manifest)
	}
}

func TestBundleMissingFileIsNotBundled(t *testing.T) {
	b := NewBundle(t.TempDir())
	if _, err := b.LessonPackage(uuid.New()); !IsNotBundled(err) {
		t.Fatalf("want not-bundled sentinel, got %v", err)
	}
}

func TestClientPrefersBundleOverRemote(t *testing.T) {
	dir := t.TempDir()
	lessonID, unitID := uuid.New(), uuid.New()
	writeBundleFile(t, dir, filepath.Join("lessons", lessonID.String()+".yml"), fmt.Sprintf(
		"lesson_id: %s\nunit_id: %s\ntitle: Bundled lesson\n", lessonID, unitID))

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	// No remote configured: a bundle hit must still resolve.
	c := NewClient(NewBundle(dir), nil, time.Minute, log)

	pkg, err := c.LessonPackage(context.Background(), lessonID)
	if err != nil {
		t.Fatalf("lesson package: %v", err)
	}
	if pkg.Title != "Bundled lesson" {
		t.Fatalf("package: %+v", pkg)
	}

	// Second resolve is served from cache even after the file disappears.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove bundle: %v", err)
	}
	again, err := c.LessonPackage(context.Background(), lessonID)
	if err != nil {
		t.Fatalf("cached package: %v", err)
	}
	if again.Title != "Bundled lesson" {
		t.Fatalf("cache miss: %+v", again)
	}
}

func TestClientUnbundledWithoutRemoteFails(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c := NewClient(nil, nil, time.Minute, log)
	if _, err := c.LessonPackage(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error with no bundle and no remote")
	}
}
