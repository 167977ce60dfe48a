package domain

import "fmt"

// Curation file names inside a curated book directory.
const (
	CurationMetadataFile   = "metadata.yaml"
	CurationPhilosophyFile = "philosophy.yaml"
	CurationPrinciplesFile = "principles.yaml"
	CurationStrategiesFile = "strategies.yaml"
)

// SourceCitation points at a location in a book.
type SourceCitation struct {
	Chapter string `yaml:"chapter" json:"chapter"`

	// Location is a page or e-reader location, if known.
	Location *int `yaml:"location" json:"location,omitempty"`

	Quote string `yaml:"quote" json:"quote"`
}

// CuratedPrinciple is a principle written up by hand from a book.
type CuratedPrinciple struct {
	ID       string         `yaml:"id" json:"id"`
	Title    string         `yaml:"title" json:"title"`
	Summary  string         `yaml:"summary" json:"summary"`
	Topics   []string       `yaml:"topics" json:"topics"`
	Concepts []string       `yaml:"concepts" json:"concepts"`
	Source   SourceCitation `yaml:"source" json:"source"`
}

// CuratedStrategy is an actionable strategy written up by hand from a book.
type CuratedStrategy struct {
	ID       string         `yaml:"id" json:"id"`
	Title    string         `yaml:"title" json:"title"`
	Summary  string         `yaml:"summary" json:"summary"`
	Topics   []string       `yaml:"topics" json:"topics"`
	Steps    []string       `yaml:"steps" json:"steps"`
	Concepts []string       `yaml:"concepts" json:"concepts"`
	Source   SourceCitation `yaml:"source" json:"source"`
}

// BookPhilosophy is the core worldview of a book.
type BookPhilosophy struct {
	CoreBelief string         `yaml:"core_belief" json:"core_belief"`
	KeyIdeas   []string       `yaml:"key_ideas" json:"key_ideas"`
	Source     SourceCitation `yaml:"source" json:"source"`
}

// CuratedBook is the hand-curated content for one book.
type CuratedBook struct {
	Slug       string             `json:"slug"`
	Title      string             `json:"title"`
	Author     string             `json:"author"`
	ShortName  string             `json:"short_name"`
	Philosophy *BookPhilosophy    `json:"philosophy,omitempty"`
	Principles []CuratedPrinciple `json:"principles"`
	Strategies []CuratedStrategy  `json:"strategies"`
}

// ValidationError is one problem found in curated content.
type ValidationError struct {
	File    string `json:"file"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// String formats the error as "[file] field: message".
func (e ValidationError) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.File, e.Field, e.Message)
}

// ValidationResult is the outcome of validating curated content.
// Valid is true iff there are no errors; warnings never block an import.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// ImportResult reports what a curation import did.
type ImportResult struct {
	Success            bool     `json:"success"`
	BookSlug           string   `json:"book_slug"`
	PrinciplesImported int      `json:"principles_imported"`
	StrategiesImported int      `json:"strategies_imported"`
	ConceptsAdded      int      `json:"concepts_added"`
	TopicsAdded        int      `json:"topics_added"`
	Errors             []string `json:"errors"`
}
