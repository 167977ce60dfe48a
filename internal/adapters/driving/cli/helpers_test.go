package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

type mockLibraryService struct {
	added      *domain.IngestResult
	addErr     error
	gotPath    string
	gotOpts    domain.AddBookOptions
	books      []domain.BookRecord
	book       *domain.BookRecord
	removed    *domain.RemoveResult
	removeCall int
	rebuilt    []domain.IngestResult
	gotRebuild string
	subjects   []domain.SubjectSummary
	chapters   []domain.ChapterRecord
	err        error
	gotSubject string
}

func (m *mockLibraryService) AddBook(_ context.Context, path string, opts domain.AddBookOptions) (*domain.IngestResult, error) {
	m.gotPath = path
	m.gotOpts = opts
	return m.added, m.addErr
}

func (m *mockLibraryService) RemoveBook(context.Context, string) (*domain.RemoveResult, error) {
	m.removeCall++
	return m.removed, m.err
}

func (m *mockLibraryService) Rebuild(_ context.Context, slug string) ([]domain.IngestResult, error) {
	m.gotRebuild = slug
	return m.rebuilt, m.err
}

func (m *mockLibraryService) ListBooks(_ context.Context, subject string) ([]domain.BookRecord, error) {
	m.gotSubject = subject
	return m.books, m.err
}

func (m *mockLibraryService) GetBook(context.Context, string) (*domain.BookRecord, error) {
	return m.book, m.err
}

func (m *mockLibraryService) Subjects(context.Context) ([]domain.SubjectSummary, error) {
	return m.subjects, m.err
}

func (m *mockLibraryService) Chapters(context.Context, string) ([]domain.ChapterRecord, error) {
	return m.chapters, m.err
}

type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.err
}

type mockAdviceService struct {
	advice       *domain.SynthesizedAdvice
	perspectives []domain.SourcePerspective
	comparison   *domain.SourceComparison
	err          error
	gotOpts      domain.SearchOptions
}

func (m *mockAdviceService) Advise(_ context.Context, _ string, opts domain.SearchOptions) (*domain.SynthesizedAdvice, error) {
	m.gotOpts = opts
	return m.advice, m.err
}

func (m *mockAdviceService) AdviseBySource(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SourcePerspective, error) {
	m.gotOpts = opts
	return m.perspectives, m.err
}

func (m *mockAdviceService) Compare(_ context.Context, _ string, opts domain.SearchOptions) (*domain.SourceComparison, error) {
	m.gotOpts = opts
	return m.comparison, m.err
}

type mockCurationService struct {
	validation domain.ValidationResult
	imported   domain.ImportResult
	initErr    error
	gotSlug    string
	gotDir     string
	gotSubject string
}

func (m *mockCurationService) Validate(*domain.CuratedBook) domain.ValidationResult {
	return m.validation
}

func (m *mockCurationService) ValidateDirectory(dir string) domain.ValidationResult {
	m.gotDir = dir
	return m.validation
}

func (m *mockCurationService) Import(context.Context, *domain.CuratedBook, string, bool) domain.ImportResult {
	return m.imported
}

func (m *mockCurationService) ImportDirectory(_ context.Context, dir, subject string) domain.ImportResult {
	m.gotDir = dir
	m.gotSubject = subject
	return m.imported
}

func (m *mockCurationService) InitTemplate(slug, dir string) error {
	m.gotSlug = slug
	m.gotDir = dir
	return m.initErr
}

type mockExploreService struct {
	driving.ExploreService
	topics          []domain.Topic
	searchedTopics  []domain.Topic
	concepts        []domain.ConceptNode
	searched        []domain.ConceptNode
	concept         *domain.ConceptNode
	related         []domain.RelatedConcept
	stats           domain.GraphStats
	err             error
	gotSubject      string
	gotBook         string
	gotRelationship domain.Relationship
	gotDepth        int
}

func (m *mockExploreService) Topics(_ context.Context, subject, book string) ([]domain.Topic, error) {
	m.gotSubject = subject
	m.gotBook = book
	return m.topics, m.err
}

func (m *mockExploreService) SearchTopics(context.Context, string) ([]domain.Topic, error) {
	return m.searchedTopics, m.err
}

func (m *mockExploreService) Concepts(_ context.Context, book string) ([]domain.ConceptNode, error) {
	m.gotBook = book
	return m.concepts, m.err
}

func (m *mockExploreService) SearchConcepts(context.Context, string) ([]domain.ConceptNode, error) {
	return m.searched, m.err
}

func (m *mockExploreService) Concept(context.Context, string) (*domain.ConceptNode, error) {
	return m.concept, m.err
}

func (m *mockExploreService) RelatedConcepts(
	_ context.Context, _ string, relationship domain.Relationship, depth int,
) ([]domain.RelatedConcept, error) {
	m.gotRelationship = relationship
	m.gotDepth = depth
	return m.related, m.err
}

func (m *mockExploreService) GraphStats(context.Context) (domain.GraphStats, error) {
	return m.stats, m.err
}

type mockSummaryService struct {
	summary *domain.ChapterSummary
	err     error
}

func (m *mockSummaryService) SummariseChapter(context.Context, string, int) (*domain.ChapterSummary, error) {
	return m.summary, m.err
}

type mockSettingsService struct {
	settings       *domain.AppSettings
	getErr         error
	validateErr    error
	validateEmbErr error
	validateLLMErr error
	storagePath    string
	embedding      []string
	llm            []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) { return m.settings, m.getErr }

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = s
	return nil
}

func (m *mockSettingsService) SetStoragePath(path string) error {
	m.storagePath = path
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, baseURL, apiKey string) error {
	m.embedding = []string{string(p), model, baseURL, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, baseURL, apiKey string) error {
	m.llm = []string{string(p), model, baseURL, apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.validateEmbErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.validateLLMErr }

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	library  *mockLibraryService
	search   *mockSearchService
	advice   *mockAdviceService
	curation *mockCurationService
	explore  *mockExploreService
	summary  *mockSummaryService
	settings *mockSettingsService
}

// setupTestServices installs fresh mocks and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		library:  &mockLibraryService{},
		search:   &mockSearchService{},
		advice:   &mockAdviceService{},
		curation: &mockCurationService{},
		explore:  &mockExploreService{},
		summary:  &mockSummaryService{},
		settings: &mockSettingsService{settings: func() *domain.AppSettings {
			s := domain.DefaultAppSettings()
			return &s
		}()},
	}
	SetServices(&Services{
		Library:  ts.library,
		Search:   ts.search,
		Advice:   ts.advice,
		Curation: ts.curation,
		Explore:  ts.explore,
		Summary:  ts.summary,
	})
	SetSettingsService(ts.settings)

	return ts, func() {
		SetServices(&Services{})
		SetSettingsService(nil)
		SetBootstrap(nil)
	}
}

// resetFlags restores every flag under cmd to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and stdin, returning combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
