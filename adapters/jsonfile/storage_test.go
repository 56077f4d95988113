package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tripquest/core"
)

func TestPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.json")
	ctx := context.Background()

	store := New(path)
	rec := core.DefaultRecord()
	rec.Points = 110
	rec.PlacesVisited = []string{"beaches"}
	rec.Badges = []string{"first_steps"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	reloaded := New(path)
	got, ok, err := reloaded.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Points != 110 || got.PlacesVisited[0] != "beaches" || got.Badges[0] != "first_steps" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMissingFileIsAbsent(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope.json"))
	_, ok, err := store.Load(context.Background())
	if err != nil || ok {
		t.Fatalf("want absent without error, got ok=%v err=%v", ok, err)
	}
}

func TestCorruptFileTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte("{{{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := New(path)
	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt file must not error: %v", err)
	}
	if ok {
		t.Fatal("corrupt file must be treated as absent")
	}
}

func TestSatelliteSetsAreIndependentFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.json")
	ctx := context.Background()

	store := New(path)
	if err := store.SaveSet(ctx, "beaches_explored", []string{"los-roques", "coche"}); err != nil {
		t.Fatalf("save set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "progress.beaches_explored.json")); err != nil {
		t.Fatalf("expected satellite file: %v", err)
	}

	// The record file is untouched by satellite writes.
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatal("record should still be absent")
	}

	got, err := store.LoadSet(ctx, "beaches_explored")
	if err != nil || len(got) != 2 {
		t.Fatalf("load set: %v %v", got, err)
	}
}
