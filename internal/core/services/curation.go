package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// Ensure CurationService implements the interface.
var _ driving.CurationService = (*CurationService)(nil)

const (
	conceptDescriptionRunes = 200
	ideaNameRunes           = 50
)

// CurationService validates hand-curated book content and projects it into
// the topic registry and knowledge graph.
type CurationService struct {
	repo   driven.CurationRepository
	topics driven.TopicRegistry
	graph  driven.KnowledgeGraph
}

// NewCurationService creates a new curation service.
func NewCurationService(
	repo driven.CurationRepository,
	topics driven.TopicRegistry,
	graph driven.KnowledgeGraph,
) *CurationService {
	return &CurationService{
		repo:   repo,
		topics: topics,
		graph:  graph,
	}
}

// Validate checks required fields and id uniqueness. Missing optional
// detail is reported as a warning and never makes the book invalid.
func (s *CurationService) Validate(book *domain.CuratedBook) domain.ValidationResult {
	v := &validator{}

	if book.Slug == "" {
		v.fail(domain.CurationMetadataFile, "slug", "slug is required")
	}
	if book.Title == "" {
		v.fail(domain.CurationMetadataFile, "title", "title is required")
	}
	if book.Author == "" {
		v.warn(domain.CurationMetadataFile, "author", "author is missing")
	}

	principleIDs := make(map[string]bool)
	for i, p := range book.Principles {
		prefix := fmt.Sprintf("principles[%d]", i)
		v.checkID(domain.CurationPrinciplesFile, prefix, p.ID, principleIDs)

		if p.Title == "" {
			v.fail(domain.CurationPrinciplesFile, prefix+".title", "title is required")
		}
		if p.Summary == "" {
			v.warn(domain.CurationPrinciplesFile, prefix+".summary", "summary is empty")
		}
		if len(p.Topics) == 0 {
			v.warn(domain.CurationPrinciplesFile, prefix+".topics", "no topics specified")
		}
		if p.Source.Chapter == "" {
			v.warn(domain.CurationPrinciplesFile, prefix+".source.chapter", "source chapter not specified")
		}
	}

	strategyIDs := make(map[string]bool)
	for i, st := range book.Strategies {
		prefix := fmt.Sprintf("strategies[%d]", i)
		v.checkID(domain.CurationStrategiesFile, prefix, st.ID, strategyIDs)

		if st.Title == "" {
			v.fail(domain.CurationStrategiesFile, prefix+".title", "title is required")
		}
		if st.Summary == "" {
			v.warn(domain.CurationStrategiesFile, prefix+".summary", "summary is empty")
		}
		if len(st.Steps) == 0 {
			v.warn(domain.CurationStrategiesFile, prefix+".steps", "no steps specified")
		}
		if len(st.Topics) == 0 {
			v.warn(domain.CurationStrategiesFile, prefix+".topics", "no topics specified")
		}
	}

	if book.Philosophy != nil {
		if book.Philosophy.CoreBelief == "" {
			v.warn(domain.CurationPhilosophyFile, "core_belief", "core_belief is empty")
		}
		if len(book.Philosophy.KeyIdeas) == 0 {
			v.warn(domain.CurationPhilosophyFile, "key_ideas", "no key ideas specified")
		}
	}

	return v.result()
}

// ValidateDirectory loads and checks a curated book directory.
// Load failures are reported as errors against the directory.
func (s *CurationService) ValidateDirectory(dir string) domain.ValidationResult {
	book, err := s.repo.Load(dir)
	if err != nil {
		v := &validator{}
		if errors.Is(err, domain.ErrNotFound) {
			v.fail(dir, domain.CurationMetadataFile, domain.CurationMetadataFile+" is required")
		} else {
			v.fail(dir, "parse", fmt.Sprintf("Failed to parse: %v", err))
		}
		return v.result()
	}
	return s.Validate(book)
}

// Import registers every topic and concept named by the book's principles
// and strategies, plus a concept per philosophy idea linked from a
// philosophy concept. Validation, when requested, runs before any store
// is touched.
func (s *CurationService) Import(
	ctx context.Context, book *domain.CuratedBook, subject string, validate bool,
) domain.ImportResult {
	logger.Section("Curation Import")
	if subject == "" {
		subject = domain.DefaultSubject
	}

	result := domain.ImportResult{BookSlug: book.Slug, Errors: []string{}}

	if validate {
		validation := s.Validate(book)
		if !validation.Valid {
			for _, e := range validation.Errors {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", e.Field, e.Message))
			}
			logger.Warn("Validation failed for %s: %d errors", book.Slug, len(validation.Errors))
			return result
		}
	}

	imp := &importer{ctx: ctx, svc: s, book: book, subject: subject}
	for _, p := range book.Principles {
		imp.addEntry(p.Topics, p.Concepts, p.Summary)
	}
	for _, st := range book.Strategies {
		imp.addEntry(st.Topics, st.Concepts, st.Summary)
	}
	if book.Philosophy != nil {
		imp.addPhilosophy(book.Philosophy)
	}

	result.TopicsAdded = imp.topics
	result.ConceptsAdded = imp.concepts
	if imp.err != nil {
		result.Errors = append(result.Errors, imp.err.Error())
		return result
	}

	result.Success = true
	result.PrinciplesImported = len(book.Principles)
	result.StrategiesImported = len(book.Strategies)
	logger.Info("Imported %s: %d topics, %d concepts", book.Slug, result.TopicsAdded, result.ConceptsAdded)
	return result
}

// ImportDirectory loads, validates and imports a curated book directory.
func (s *CurationService) ImportDirectory(ctx context.Context, dir, subject string) domain.ImportResult {
	book, err := s.repo.Load(dir)
	if err != nil {
		msg := err.Error()
		if !errors.Is(err, domain.ErrNotFound) {
			msg = "Import failed: " + msg
		}
		return domain.ImportResult{BookSlug: filepath.Base(dir), Errors: []string{msg}}
	}
	return s.Import(ctx, book, subject, true)
}

// InitTemplate writes starter files for a new curated book.
func (s *CurationService) InitTemplate(slug, dir string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug is required", domain.ErrInvalidInput)
	}
	return s.repo.WriteTemplate(slug, dir)
}

// validator accumulates errors and warnings.
type validator struct {
	errors   []domain.ValidationError
	warnings []domain.ValidationError
}

func (v *validator) fail(file, field, msg string) {
	v.errors = append(v.errors, domain.ValidationError{File: file, Field: field, Message: msg})
}

func (v *validator) warn(file, field, msg string) {
	v.warnings = append(v.warnings, domain.ValidationError{File: file, Field: field, Message: msg})
}

func (v *validator) checkID(file, prefix, id string, seen map[string]bool) {
	switch {
	case id == "":
		v.fail(file, prefix+".id", "id is required")
	case seen[id]:
		v.fail(file, prefix+".id", "duplicate id: "+id)
	default:
		seen[id] = true
	}
}

func (v *validator) result() domain.ValidationResult {
	return domain.ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   append([]domain.ValidationError{}, v.errors...),
		Warnings: append([]domain.ValidationError{}, v.warnings...),
	}
}

// importer writes one book's topics and concepts, stopping at the first
// store error.
type importer struct {
	ctx      context.Context
	svc      *CurationService
	book     *domain.CuratedBook
	subject  string
	topics   int
	concepts int
	err      error
}

func (imp *importer) addEntry(topicIDs, conceptIDs []string, summary string) {
	for _, id := range topicIDs {
		if imp.err != nil {
			return
		}
		_, err := imp.svc.topics.AddTopic(imp.ctx, domain.Topic{
			ID:          id,
			DisplayName: displayNameFromID(id),
			Subject:     imp.subject,
		})
		if err != nil {
			imp.err = fmt.Errorf("add topic %s: %w", id, err)
			return
		}
		imp.topics++
	}

	for _, id := range conceptIDs {
		imp.addConcept(domain.ConceptNode{
			ID:          id,
			DisplayName: displayNameFromID(id),
			Description: truncateRunes(summary, conceptDescriptionRunes),
			SourceBook:  imp.book.Slug,
		})
	}
}

func (imp *importer) addPhilosophy(philosophy *domain.BookPhilosophy) {
	rootID := imp.book.Slug + "-philosophy"
	imp.addConcept(domain.ConceptNode{
		ID:          rootID,
		DisplayName: imp.book.ShortName + " Philosophy",
		Description: truncateRunes(philosophy.CoreBelief, conceptDescriptionRunes),
		SourceBook:  imp.book.Slug,
	})

	for i, idea := range philosophy.KeyIdeas {
		ideaID := fmt.Sprintf("%s-idea-%d", imp.book.Slug, i+1)
		imp.addConcept(domain.ConceptNode{
			ID:          ideaID,
			DisplayName: truncateRunes(idea, ideaNameRunes),
			Description: idea,
			SourceBook:  imp.book.Slug,
		})
		if imp.err != nil {
			return
		}
		err := imp.svc.graph.AddRelationship(imp.ctx, domain.ConceptEdge{
			Source:       rootID,
			Target:       ideaID,
			Relationship: domain.RelationshipElaborates,
			SourceBook:   imp.book.Slug,
			Weight:       1.0,
		})
		if err != nil {
			imp.err = fmt.Errorf("link %s: %w", ideaID, err)
		}
	}
}

func (imp *importer) addConcept(concept domain.ConceptNode) {
	if imp.err != nil {
		return
	}
	if _, err := imp.svc.graph.AddConcept(imp.ctx, concept); err != nil {
		imp.err = fmt.Errorf("add concept %s: %w", concept.ID, err)
		return
	}
	imp.concepts++
}
