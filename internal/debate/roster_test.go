package debate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRosterEmbeddedDefault(t *testing.T) {
	roster, err := LoadRoster("")
	if err != nil {
		t.Fatalf("LoadRoster failed: %v", err)
	}
	if len(roster.Archetypes) != 3 {
		t.Fatalf("expected 3 default archetypes, got %d", len(roster.Archetypes))
	}
	for _, a := range roster.Archetypes {
		if a.Perspective == "" || a.Focus == "" {
			t.Fatalf("archetype %s is missing prompt material", a.Name)
		}
	}
}

func TestLoadRosterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `archetypes:
  - name: solo
    provider: gemini
    model: gemini-2.0-flash
    temperature: 0.5
    perspective: everything
    focus: just decide
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster failed: %v", err)
	}
	if len(roster.Archetypes) != 1 || roster.Archetypes[0].Name != "solo" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestLoadRosterRejectsBadProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `archetypes:
  - name: bad
    provider: carrier_pigeon
    model: rock
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	if _, err := LoadRoster(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRosterRejectsDuplicateNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `archetypes:
  - name: twin
    provider: gemini
    model: gemini-2.0-flash
  - name: twin
    provider: gemini
    model: gemini-2.0-flash
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	if _, err := LoadRoster(path); err == nil {
		t.Fatal("expected error for duplicate archetype names")
	}
}
