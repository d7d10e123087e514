package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"trellis/internal/logging"
)

func TestCacheStoreAndLookup(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "taxonomy.json")
	cache := NewCache(cachePath, logging.NewNop())

	resolution := Resolution{
		Outcome:      OutcomeSpeciesConfirmed,
		AcceptedName: "Epipremnum aureum",
		UsageKey:     400,
		Rank:         "SPECIES",
	}
	if err := cache.Store("scindapsus aureus", resolution); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	found, ok := cache.Lookup("scindapsus aureus")
	if !ok {
		t.Fatal("Lookup failed to find stored entry")
	}
	if found.Outcome != OutcomeSpeciesConfirmed {
		t.Errorf("Outcome = %v, want species confirmed", found.Outcome)
	}
	if found.AcceptedName != "Epipremnum aureum" {
		t.Errorf("AcceptedName = %q", found.AcceptedName)
	}
	if found.UsageKey != 400 {
		t.Errorf("UsageKey = %d, want 400", found.UsageKey)
	}
}

func TestCacheRejectsUnresolved(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "taxonomy.json"), logging.NewNop())
	if err := cache.Store("ficus pumila", Resolution{Outcome: OutcomeUnresolved}); err == nil {
		t.Fatal("storing an unresolved outcome should fail")
	}
}

func TestCacheSurvivesReload(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "taxonomy.json")

	first := NewCache(cachePath, logging.NewNop())
	if err := first.Store("ficus microcarpa", Resolution{Outcome: OutcomeRejectedNonSpecies, Rank: "GENUS"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	second := NewCache(cachePath, logging.NewNop())
	found, ok := second.Lookup("ficus microcarpa")
	if !ok {
		t.Fatal("entry lost across reload")
	}
	if found.Outcome != OutcomeRejectedNonSpecies || found.Rank != "GENUS" {
		t.Errorf("reloaded resolution = %+v", found)
	}
}

func TestCacheCorruptFileIsRecoverable(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "taxonomy.json")
	if err := os.WriteFile(cachePath, []byte("{garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(cachePath, logging.NewNop())
	if cache.Count() != 0 {
		t.Errorf("corrupt cache produced %d entries", cache.Count())
	}
	if err := cache.Store("aa bb", Resolution{Outcome: OutcomeSpeciesConfirmed, Rank: "SPECIES"}); err != nil {
		t.Fatalf("Store after corrupt load failed: %v", err)
	}
}

func TestCacheDisabledWithEmptyPath(t *testing.T) {
	cache := NewCache("", logging.NewNop())
	if err := cache.Store("aa bb", Resolution{Outcome: OutcomeSpeciesConfirmed}); err != nil {
		t.Fatalf("Store on disabled cache should be a no-op, got %v", err)
	}
	if _, ok := cache.Lookup("aa bb"); ok {
		t.Error("disabled cache must not return entries")
	}
	if cache.Count() != 0 {
		t.Errorf("disabled cache Count = %d", cache.Count())
	}
}
