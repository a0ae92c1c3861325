package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_PrefersEnriched(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.json")
	enriched := filepath.Join(dir, "enriched.json")
	writeFile(t, base, `[{"name":"base"}]`)

	records, used, err := Load(base, enriched)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if used != base || records[0].Name != "base" {
		t.Errorf("expected base collection, got %q from %s", records[0].Name, used)
	}

	writeFile(t, enriched, `[{"name":"enriched","image":"x.png"}]`)
	records, used, err = Load(base, enriched)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if used != enriched || records[0].Image != "x.png" {
		t.Errorf("expected enriched collection, got %+v from %s", records[0], used)
	}
}

func TestLoad_FatalInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	obj := filepath.Join(dir, "obj.json")
	writeFile(t, bad, `[{"name":`)
	writeFile(t, obj, `null`)

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.json")},
		{"malformed", bad},
		{"not an array", obj},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.path, "")
			if !engine.IsCode(err, engine.ErrCodeInput) {
				t.Errorf("expected INPUT error, got %v", err)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	records := []models.OfferRecord{{
		Name:    "Card <Platinum>",
		Links:   models.Links{{Type: "official", URL: "https://bank.test/?a=1&b=2"}},
		Snippet: "5% Cashback Card — Earn more",
	}}
	if err := Save(path, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "Card <Platinum>") || !strings.Contains(text, "a=1&b=2") {
		t.Errorf("output is HTML-escaped:\n%s", text)
	}
	if !strings.Contains(text, "\n  {") {
		t.Errorf("output is not indented:\n%s", text)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if back[0].Snippet != records[0].Snippet || back[0].Links[0].URL != records[0].Links[0].URL {
		t.Errorf("round trip mismatch: %+v", back[0])
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestSave_PreservesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.json")
	writeFile(t, path, `[{"name":"x","partner_id":42,"links":"https://bank.test"}]`)

	records, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(path, records); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"partner_id": 42`) {
		t.Errorf("unknown field dropped:\n%s", data)
	}
}
