package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	packDir := filepath.Join(home, "resourcepack")

	store, err := Load(filepath.Join(home, FileName), packDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := store.ActivePack(); got != DefaultPack {
		t.Errorf("ActivePack = %q; want %q", got, DefaultPack)
	}
	if info, err := os.Stat(packDir); err != nil || !info.IsDir() {
		t.Errorf("pack directory not created: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, FileName)
	packDir := filepath.Join(home, "resourcepack")

	store, err := Load(path, packDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	store.SetActivePack("themeA")
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path, packDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reloaded.ActivePack(); got != "themeA" {
		t.Errorf("ActivePack = %q; want %q", got, "themeA")
	}
	if !reloaded.IsPackActive(filepath.Join(packDir, "themeA")) {
		t.Error("IsPackActive(path to themeA) = false; want true")
	}
}

func TestRefreshFiltersEntries(t *testing.T) {
	home := t.TempDir()
	packDir := filepath.Join(home, "resourcepack")
	os.MkdirAll(filepath.Join(packDir, "themeB"), 0755)
	os.MkdirAll(filepath.Join(packDir, ".staging-1"), 0755)
	os.WriteFile(filepath.Join(packDir, "default_pack.zip"), []byte("zip"), 0644)
	os.WriteFile(filepath.Join(packDir, "abc.part"), []byte("partial"), 0644)
	os.WriteFile(filepath.Join(packDir, "alpha.zip"), []byte("zip"), 0644)

	store := New(filepath.Join(home, FileName), packDir)
	if err := store.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	want := []string{"alpha.zip", "default_pack.zip", "themeB"}
	if got := store.AvailablePacks(); !reflect.DeepEqual(got, want) {
		t.Errorf("AvailablePacks = %v; want %v", got, want)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, FileName)
	os.WriteFile(path, []byte("{not json"), 0644)

	if _, err := Load(path, filepath.Join(home, "resourcepack")); err == nil {
		t.Error("Load of corrupt settings returned nil error")
	}
}
