// Package debate runs a panel of independent AI agents over a scan's detected
// products and reconciles their recommendations into one final plan.
package debate

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Agent providers.
const (
	ProviderGemini       = "gemini"
	ProviderOpenAICompat = "openai_compat"
)

//go:embed archetypes.yaml
var defaultRoster []byte

// Archetype describes one debate agent: its perspective, the model behind it,
// and how its prompt is framed.
type Archetype struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	Perspective string  `yaml:"perspective"`
	Focus       string  `yaml:"focus"`
}

// Roster is the configured set of archetypes for every debate.
type Roster struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// LoadRoster reads the archetype roster from path, or the embedded default
// roster when path is empty.
func LoadRoster(path string) (Roster, error) {
	data := defaultRoster
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return Roster{}, fmt.Errorf("read archetype roster: %w", err)
		}
		data = fileData
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return Roster{}, fmt.Errorf("parse archetype roster: %w", err)
	}
	if err := roster.validate(); err != nil {
		return Roster{}, err
	}
	return roster, nil
}

func (r Roster) validate() error {
	if len(r.Archetypes) == 0 {
		return fmt.Errorf("archetype roster is empty")
	}
	seen := make(map[string]bool, len(r.Archetypes))
	for _, a := range r.Archetypes {
		if a.Name == "" {
			return fmt.Errorf("archetype without a name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate archetype %q", a.Name)
		}
		seen[a.Name] = true
		if a.Provider != ProviderGemini && a.Provider != ProviderOpenAICompat {
			return fmt.Errorf("archetype %q: unknown provider %q", a.Name, a.Provider)
		}
		if a.Model == "" {
			return fmt.Errorf("archetype %q: model is required", a.Name)
		}
	}
	return nil
}
