// Package yamlfile stores curated book content as a directory of YAML files:
//
//	metadata.yaml    required: slug, title, author, short_name
//	philosophy.yaml  optional: core belief and key ideas
//	principles.yaml  optional: principles list
//	strategies.yaml  optional: strategies list
package yamlfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure Repository implements the interface.
var _ driven.CurationRepository = (*Repository)(nil)

const filePerm = 0o644

// Repository reads and writes curated book directories.
type Repository struct{}

// NewRepository creates a YAML curation repository.
func NewRepository() *Repository {
	return &Repository{}
}

// metadataFile distinguishes absent keys from empty ones so the slug can
// default to the directory name and the short name to the title.
type metadataFile struct {
	Slug      *string `yaml:"slug"`
	Title     string  `yaml:"title"`
	Author    string  `yaml:"author"`
	ShortName *string `yaml:"short_name"`
}

type principlesFile struct {
	Principles []domain.CuratedPrinciple `yaml:"principles"`
}

type strategiesFile struct {
	Strategies []domain.CuratedStrategy `yaml:"strategies"`
}

// Load reads the curated book in dir.
func (r *Repository) Load(dir string) (*domain.CuratedBook, error) {
	var meta metadataFile
	found, err := readYAML(filepath.Join(dir, domain.CurationMetadataFile), &meta)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s not found in %s", domain.ErrNotFound, domain.CurationMetadataFile, dir)
	}

	book := &domain.CuratedBook{
		Slug:      filepath.Base(filepath.Clean(dir)),
		Title:     meta.Title,
		Author:    meta.Author,
		ShortName: meta.Title,
	}
	if meta.Slug != nil {
		book.Slug = *meta.Slug
	}
	if meta.ShortName != nil {
		book.ShortName = *meta.ShortName
	}

	var raw map[string]any
	found, err = readYAML(filepath.Join(dir, domain.CurationPhilosophyFile), &raw)
	if err != nil {
		return nil, err
	}
	if found && len(raw) > 0 {
		var philosophy domain.BookPhilosophy
		if _, err := readYAML(filepath.Join(dir, domain.CurationPhilosophyFile), &philosophy); err != nil {
			return nil, err
		}
		book.Philosophy = &philosophy
	}

	var principles principlesFile
	if _, err := readYAML(filepath.Join(dir, domain.CurationPrinciplesFile), &principles); err != nil {
		return nil, err
	}
	book.Principles = principles.Principles

	var strategies strategiesFile
	if _, err := readYAML(filepath.Join(dir, domain.CurationStrategiesFile), &strategies); err != nil {
		return nil, err
	}
	book.Strategies = strategies.Strategies

	return book, nil
}

// Save writes the book into dir. Optional files are only written when the
// book has content for them.
func (r *Repository) Save(book *domain.CuratedBook, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create curation directory: %w", err)
	}

	slug, shortName := book.Slug, book.ShortName
	meta := metadataFile{
		Slug:      &slug,
		Title:     book.Title,
		Author:    book.Author,
		ShortName: &shortName,
	}
	if err := writeYAML(filepath.Join(dir, domain.CurationMetadataFile), meta); err != nil {
		return err
	}

	if book.Philosophy != nil {
		if err := writeYAML(filepath.Join(dir, domain.CurationPhilosophyFile), book.Philosophy); err != nil {
			return err
		}
	}
	if len(book.Principles) > 0 {
		if err := writeYAML(filepath.Join(dir, domain.CurationPrinciplesFile), principlesFile{book.Principles}); err != nil {
			return err
		}
	}
	if len(book.Strategies) > 0 {
		if err := writeYAML(filepath.Join(dir, domain.CurationStrategiesFile), strategiesFile{book.Strategies}); err != nil {
			return err
		}
	}
	return nil
}

// WriteTemplate writes commented starter files for slug into dir.
func (r *Repository) WriteTemplate(slug, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create curation directory: %w", err)
	}

	files := map[string]string{
		domain.CurationMetadataFile:   fmt.Sprintf(metadataTemplate, slug),
		domain.CurationPhilosophyFile: philosophyTemplate,
		domain.CurationPrinciplesFile: principlesTemplate,
		domain.CurationStrategiesFile: strategiesTemplate,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), filePerm); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// readYAML decodes path into v. A missing file reports found=false.
func readYAML(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
