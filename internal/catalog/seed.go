package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"picturebook/internal/storage"
)

//go:embed samples.yaml
var defaultSamples []byte

// Sample is one entry of a seed manifest
type Sample struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Cover string `yaml:"cover"`
}

type manifest struct {
	Books []Sample `yaml:"books"`
}

// DefaultSamples returns the six bundled sample books
func DefaultSamples() []Sample {
	samples, err := ParseSamples(defaultSamples)
	if err != nil {
		// samples.yaml is compiled in
		panic(fmt.Sprintf("invalid bundled sample manifest: %v", err))
	}
	return samples
}

// ParseSamples decodes a YAML seed manifest
func ParseSamples(data []byte) ([]Sample, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sample manifest: %w", err)
	}
	seen := make(map[string]bool, len(m.Books))
	for i, s := range m.Books {
		if s.ID == "" || s.Title == "" {
			return nil, fmt.Errorf("sample %d: %w", i, storage.ErrInvalidBook)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("sample %q: %w", s.ID, storage.ErrDuplicateID)
		}
		seen[s.ID] = true
	}
	return m.Books, nil
}

// LoadSamples reads a seed manifest from path, or the bundled one when path is empty
func LoadSamples(path string) ([]Sample, error) {
	if path == "" {
		return DefaultSamples(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample manifest: %w", err)
	}
	return ParseSamples(data)
}

// SeedSampleDataIfEmpty places the bundled samples on an empty shelf
func (c *Catalog) SeedSampleDataIfEmpty(ctx context.Context) (int, error) {
	return c.SeedIfEmpty(ctx, DefaultSamples())
}

// SeedIfEmpty creates samples only when the backend holds no books. All
// samples share one CreatedAt so listings keep manifest order. Returns the
// number of books created.
func (c *Catalog) SeedIfEmpty(ctx context.Context, samples []Sample) (int, error) {
	n, err := c.db.CountBooks(ctx)
	if err != nil {
		c.logger.Error("Failed to count books before seeding", zap.Error(err))
		return 0, fmt.Errorf("failed to check catalog before seeding: %w", err)
	}
	if n > 0 {
		c.logger.Debug("Catalog not empty, skipping sample data", zap.Int("books", n))
		return 0, nil
	}

	createdAt := c.now()
	created := 0
	for _, s := range samples {
		if _, err := c.create(ctx, s.ID, s.Title, s.Cover, createdAt); err != nil {
			if errors.Is(err, storage.ErrDuplicateID) {
				continue
			}
			return created, err
		}
		created++
	}

	c.logger.Info("Sample data created", zap.Int("books", created))
	return created, nil
}
