package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML catalogue file format.
type SeedFile struct {
	Services []SeedEntry `yaml:"services"`
}

// SeedEntry is one service in a seed file.
type SeedEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	IconRef string `yaml:"icon_ref"`
}

// LoadSeed reads and validates a YAML catalogue file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates YAML catalogue data.
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, entry := range seed.Services {
		if err := validateFields(entry.Name, entry.URL); err != nil {
			return nil, fmt.Errorf("services[%d]: %w", i, err)
		}
	}

	return &seed, nil
}

// Seed creates the seed entries that are not yet in the catalogue.
// Entries are matched by ID when given, otherwise by URL.
// Returns the number of services created.
func (m *Manager) Seed(ctx context.Context, seed *SeedFile) (int, error) {
	existing, err := m.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	ids := make(map[string]bool, len(existing))
	urls := make(map[string]bool, len(existing))
	for _, svc := range existing {
		ids[svc.ID] = true
		urls[svc.URL] = true
	}

	created := 0
	for _, entry := range seed.Services {
		if (entry.ID != "" && ids[entry.ID]) || (entry.ID == "" && urls[entry.URL]) {
			continue
		}

		svc, err := m.create(ctx, entry.ID, CreateInput{
			Name:    entry.Name,
			URL:     entry.URL,
			IconRef: entry.IconRef,
		})
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", entry.Name, err)
		}
		ids[svc.ID] = true
		urls[svc.URL] = true
		created++
	}

	return created, nil
}
