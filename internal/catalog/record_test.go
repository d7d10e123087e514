package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecordRoundTripPreservesStringID(t *testing.T) {
	source := `{"id":"monstera-deliciosa","name":"Monstera","scientificName":"Monstera deliciosa"}`

	var record Record
	if err := json.Unmarshal([]byte(source), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if record.ID.String() != "monstera-deliciosa" {
		t.Errorf("ID = %q, want %q", record.ID.String(), "monstera-deliciosa")
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"id":"monstera-deliciosa"`) {
		t.Errorf("string id not preserved: %s", data)
	}
}

func TestRecordRoundTripPreservesNumericID(t *testing.T) {
	source := `{"id":42,"name":"Monstera","scientificName":"Monstera deliciosa"}`

	var record Record
	if err := json.Unmarshal([]byte(source), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if record.ID.String() != "42" {
		t.Errorf("ID = %q, want %q", record.ID.String(), "42")
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"id":42`) {
		t.Errorf("numeric id not preserved: %s", data)
	}
}

func TestRecordPassesUnknownFieldsThrough(t *testing.T) {
	source := `{"id":"x","name":"X","scientificName":"Xx yy","lightLevel":"bright-indirect","toxic":true}`

	var record Record
	if err := json.Unmarshal([]byte(source), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(record.Extra) != 2 {
		t.Fatalf("Extra = %v, want 2 passthrough fields", record.Extra)
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"lightLevel":"bright-indirect"`) {
		t.Errorf("passthrough field dropped: %s", data)
	}
	if !strings.Contains(string(data), `"toxic":true`) {
		t.Errorf("passthrough field dropped: %s", data)
	}
}

func TestRecordMarshalIsDeterministic(t *testing.T) {
	source := `{"id":"x","name":"X","scientificName":"Xx yy","zeta":1,"alpha":2,"mid":3}`

	var record Record
	if err := json.Unmarshal([]byte(source), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	first, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("marshal output unstable:\n%s\n%s", first, again)
		}
	}

	alphaIdx := strings.Index(string(first), `"alpha"`)
	zetaIdx := strings.Index(string(first), `"zeta"`)
	if alphaIdx == -1 || zetaIdx == -1 || alphaIdx > zetaIdx {
		t.Errorf("passthrough fields not sorted by key: %s", first)
	}
}

func TestRecordOmitsEmptyOptionalFields(t *testing.T) {
	record := Record{ID: NewID("x"), Name: "X", ScientificName: "Xx yy"}
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, field := range []string{"commonNames", "description", "imageUrl", "images"} {
		if strings.Contains(string(data), field) {
			t.Errorf("empty optional field %q serialized: %s", field, data)
		}
	}
}

func TestHasCommonNames(t *testing.T) {
	rec := &Record{Name: "Monstera"}
	if rec.HasCommonNames() {
		t.Error("no aliases should report false")
	}

	rec.CommonNames = []string{"monstera"}
	if rec.HasCommonNames() {
		t.Error("single alias equal to display name should report false")
	}

	rec.CommonNames = []string{"Swiss cheese plant"}
	if !rec.HasCommonNames() {
		t.Error("distinct alias should report true")
	}
}
