package gbif

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatchBuildsQueryAndParsesResponse(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		if r.URL.Path != "/species/match" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"usageKey": 2868247,
			"scientificName": "Monstera deliciosa Liebm.",
			"canonicalName": "Monstera deliciosa",
			"rank": "SPECIES",
			"status": "ACCEPTED",
			"matchType": "EXACT",
			"confidence": 98,
			"classification": [
				{"key": 6, "name": "Plantae", "rank": "KINGDOM"},
				{"key": 2868246, "name": "Monstera", "rank": "GENUS"}
			]
		}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := client.Match(context.Background(), "Monstera deliciosa")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if captured.URL.Query().Get("name") != "Monstera deliciosa" {
		t.Errorf("name query = %q", captured.URL.Query().Get("name"))
	}
	if result.UsageKey != 2868247 {
		t.Errorf("UsageKey = %d, want 2868247", result.UsageKey)
	}
	if result.Rank != "SPECIES" {
		t.Errorf("Rank = %q, want SPECIES", result.Rank)
	}
	if len(result.Classification) != 2 || result.Classification[1].Rank != "GENUS" {
		t.Errorf("classification not parsed: %+v", result.Classification)
	}
	if result.NoMatch() {
		t.Error("EXACT result must not report NoMatch")
	}
}

func TestMatchNoMatchResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matchType": "NONE", "confidence": 100}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	result, err := client.Match(context.Background(), "Blob")
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !result.NoMatch() {
		t.Errorf("matchType NONE should report NoMatch, got %+v", result)
	}
}

func TestMatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Match(context.Background(), "Monstera deliciosa"); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestMatchRejectsEmptyName(t *testing.T) {
	client, err := New("http://localhost:1")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Match(context.Background(), "  "); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestSpeciesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/species/2868247" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key": 2868247, "canonicalName": "Monstera deliciosa", "rank": "SPECIES", "status": "ACCEPTED"}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	usage, err := client.SpeciesDetail(context.Background(), 2868247)
	if err != nil {
		t.Fatalf("SpeciesDetail failed: %v", err)
	}
	if usage.DisplayName() != "Monstera deliciosa" {
		t.Errorf("DisplayName = %q", usage.DisplayName())
	}

	if _, err := client.SpeciesDetail(context.Background(), 0); err == nil {
		t.Fatal("expected validation error for non-positive key")
	}
}

func TestUsageDisplayNameFallback(t *testing.T) {
	var nilUsage *Usage
	if nilUsage.DisplayName() != "" {
		t.Error("nil usage should yield empty display name")
	}

	usage := &Usage{ScientificName: "Ficus pumila L."}
	if usage.DisplayName() != "Ficus pumila L." {
		t.Errorf("DisplayName = %q, want scientificName fallback", usage.DisplayName())
	}
	usage.Name = "Ficus pumila"
	if usage.DisplayName() != "Ficus pumila" {
		t.Errorf("DisplayName = %q, want name over scientificName", usage.DisplayName())
	}
}
