package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trellis/internal/logging"
)

func writeRecordFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, dir
}

func TestNewStoreMissingDirectory(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent"), logging.NewNop())
	if err == nil {
		t.Fatal("expected error for missing catalog directory")
	}
}

func TestLoadAllSkipsNonRecordFiles(t *testing.T) {
	store, dir := newTestStore(t)

	writeRecordFile(t, dir, "a.json", `{"id":"1","name":"A","scientificName":"Aa bb"}`)
	writeRecordFile(t, dir, "b.json", `{"id":"2","name":"B","scientificName":"Cc dd"}`)
	writeRecordFile(t, dir, "index.json", `{"count":99,"plants":[]}`)
	writeRecordFile(t, dir, "notes.txt", "not a record")
	writeRecordFile(t, dir, ".hidden.json", `{}`)
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	records, malformed, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(malformed) != 0 {
		t.Errorf("unexpected malformed entries: %v", malformed)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Filename != "a.json" || records[1].Filename != "b.json" {
		t.Errorf("records not sorted by filename: %s, %s", records[0].Filename, records[1].Filename)
	}
}

func TestLoadAllReportsMalformedAndContinues(t *testing.T) {
	store, dir := newTestStore(t)

	writeRecordFile(t, dir, "good.json", `{"id":"1","name":"A","scientificName":"Aa bb"}`)
	writeRecordFile(t, dir, "broken.json", `{"id":`)

	records, malformed, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "good.json" {
		t.Errorf("expected the good record to survive, got %v", records)
	}
	if len(malformed) != 1 || malformed[0].Filename != "broken.json" {
		t.Errorf("expected broken.json in malformed list, got %v", malformed)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	store, dir := newTestStore(t)

	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"id":"1","name":"A","scientificName":"Aa bb"}`)...)
	if err := os.WriteFile(filepath.Join(dir, "bom.json"), content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	record, err := store.Load("bom.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if record.Name != "A" {
		t.Errorf("Name = %q, want %q", record.Name, "A")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store, dir := newTestStore(t)

	writeRecordFile(t, dir, "plant.json", `{"id":7,"name":"A","scientificName":"Aa bb","origin":"Borneo"}`)
	record, err := store.Load("plant.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	record.Description = "A creeping shingle plant."
	if err := store.Save(record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "plant.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"id": 7`) {
		t.Errorf("numeric id lost on save: %s", text)
	}
	if !strings.Contains(text, `"origin": "Borneo"`) {
		t.Errorf("passthrough field lost on save: %s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("saved file missing trailing newline")
	}
}

func TestRemove(t *testing.T) {
	store, dir := newTestStore(t)
	writeRecordFile(t, dir, "gone.json", `{"id":"1","name":"A","scientificName":"Aa bb"}`)

	record, err := store.Load("gone.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Remove(record); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.json")); !os.IsNotExist(err) {
		t.Errorf("record file still present after Remove: %v", err)
	}
}

func TestRebuildIndex(t *testing.T) {
	store, dir := newTestStore(t)
	writeRecordFile(t, dir, "b.json", `{"id":"2","name":"B","scientificName":"Cc dd"}`)
	writeRecordFile(t, dir, "a.json", `{"id":"1","name":"A","scientificName":"Aa bb"}`)
	writeRecordFile(t, dir, "index.json", `{"count":1,"plants":["stale.json"]}`)

	records, _, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	index, err := store.RebuildIndex(records, nil)
	if err != nil {
		t.Fatalf("RebuildIndex failed: %v", err)
	}
	if index.Count != 2 {
		t.Errorf("Count = %d, want 2", index.Count)
	}

	reread, err := store.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex failed: %v", err)
	}
	if len(reread.Plants) != 2 || reread.Plants[0] != "a.json" || reread.Plants[1] != "b.json" {
		t.Errorf("index plants = %v, want sorted filenames", reread.Plants)
	}
	if reread.LastUpdated.IsZero() {
		t.Error("index lastUpdated not set")
	}
}

func TestRebuildIndexListsMalformedFiles(t *testing.T) {
	store, dir := newTestStore(t)
	writeRecordFile(t, dir, "b.json", `{"id":"2","name":"B","scientificName":"Cc dd"}`)
	writeRecordFile(t, dir, "broken.json", `{"id":`)

	records, malformed, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(malformed) != 1 {
		t.Fatalf("expected 1 malformed file, got %d", len(malformed))
	}

	index, err := store.RebuildIndex(records, malformed)
	if err != nil {
		t.Fatalf("RebuildIndex failed: %v", err)
	}
	if index.Count != 2 {
		t.Errorf("Count = %d, want 2", index.Count)
	}
	if len(index.Plants) != 2 || index.Plants[0] != "b.json" || index.Plants[1] != "broken.json" {
		t.Errorf("index plants = %v, want every .json file on disk", index.Plants)
	}
}

func TestAcquireLockExcludesSecondHolder(t *testing.T) {
	store, _ := newTestStore(t)

	lock, err := store.AcquireLock()
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer func() { _ = lock.Release() }()

	if _, err := store.AcquireLock(); err == nil {
		t.Fatal("second AcquireLock should fail while lock is held")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	second, err := store.AcquireLock()
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	_ = second.Release()
}
