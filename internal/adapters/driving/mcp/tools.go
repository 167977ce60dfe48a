package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/services"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// Tool defaults.
const (
	defaultSearchLimit  = 5
	defaultAdviceLimit  = services.DefaultAdviceLimit
	defaultCompareLimit = services.DefaultCompareLimit
	topicChunkLimit     = 5
	excerptLength       = 300
)

// Detail levels accepted by search_knowledge and explore_library.
const (
	detailCitations = "citations"
	detailSummaries = "summaries"
	detailFull      = "full"
	detailNames     = "names"
)

// SearchKnowledgeInput is the input schema for the search_knowledge tool.
type SearchKnowledgeInput struct {
	Query   string   `json:"query" jsonschema:"the search query - a question or topic to find information about"`
	Limit   int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Subject string   `json:"subject,omitempty" jsonschema:"subject to search within, e.g. parenting"`
	Sources []string `json:"sources,omitempty" jsonschema:"optional list of book slugs to search within"`
	Detail  string   `json:"detail,omitempty" jsonschema:"level of detail: citations, summaries or full (default summaries)"`
}

// ExploreLibraryInput is the input schema for the explore_library tool.
type ExploreLibraryInput struct {
	Subject string `json:"subject,omitempty" jsonschema:"filter by subject (omit to see all subjects)"`
	Detail  string `json:"detail,omitempty" jsonschema:"level of detail: names, summaries or full (default summaries)"`
}

// GetAdviceInput is the input schema for the get_advice tool.
type GetAdviceInput struct {
	Question string   `json:"question" jsonschema:"the question to answer from the library"`
	Limit    int      `json:"limit,omitempty" jsonschema:"number of passages to synthesize (default 10)"`
	Subject  string   `json:"subject,omitempty" jsonschema:"subject to search within"`
	Sources  []string `json:"sources,omitempty" jsonschema:"optional list of book slugs to search within"`
	BySource bool     `json:"by_source,omitempty" jsonschema:"group the answer by book instead of merging it"`
}

// CompareSourcesInput is the input schema for the compare_sources tool.
type CompareSourcesInput struct {
	Topic   string   `json:"topic" jsonschema:"the topic to compare across books"`
	Limit   int      `json:"limit,omitempty" jsonschema:"number of passages to compare (default 15)"`
	Subject string   `json:"subject,omitempty" jsonschema:"subject to search within"`
	Sources []string `json:"sources,omitempty" jsonschema:"optional list of book slugs to compare"`
}

// ExploreTopicsInput is the input schema for the explore_topics tool.
type ExploreTopicsInput struct {
	Query   string `json:"query,omitempty" jsonschema:"find topics whose name contains this text"`
	Subject string `json:"subject,omitempty" jsonschema:"only topics in this subject"`
	Book    string `json:"book,omitempty" jsonschema:"only topics found in this book slug"`
}

// ExploreConceptsInput is the input schema for the explore_concepts tool.
type ExploreConceptsInput struct {
	Query        string `json:"query,omitempty" jsonschema:"find concepts whose name contains this text"`
	Book         string `json:"book,omitempty" jsonschema:"only concepts from this book slug"`
	Related      string `json:"related,omitempty" jsonschema:"concept id to walk the graph from"`
	Relationship string `json:"relationship,omitempty" jsonschema:"only follow edges of this relationship type"`
	Depth        int    `json:"depth,omitempty" jsonschema:"how many hops to walk from the related concept (default 1)"`
}

// SummarizeChapterInput is the input schema for the summarize_chapter tool.
type SummarizeChapterInput struct {
	Book    string `json:"book" jsonschema:"slug of the book"`
	Chapter int    `json:"chapter" jsonschema:"chapter number, starting at 1"`
}

// registerTools registers all tool handlers with the MCP server.
// Tools backed by optional ports are skipped when the port is missing.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_knowledge",
		Description: "Search the book knowledge base using semantic search. " +
			"Returns relevant passages with citations to specific books and chapters. " +
			"Use the 'subject' parameter to search within a specific subject area.",
	}, s.handleSearchKnowledge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "explore_library",
		Description: "Explore the knowledge base structure. List available subjects and books. " +
			"Use this to understand what is available before searching.",
	}, s.handleExploreLibrary)

	if s.ports.Advice != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name: "get_advice",
			Description: "Answer a question by synthesizing key points from the most relevant passages, " +
				"with citations. Set by_source to get one perspective per book.",
		}, s.handleGetAdvice)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "compare_sources",
			Description: "Compare what different books say about a topic: agreements and unique perspectives.",
		}, s.handleCompareSources)
	}

	if s.ports.Explore != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "explore_topics",
			Description: "List or search the topics found across books, with the books they appear in.",
		}, s.handleExploreTopics)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "explore_concepts",
			Description: "List or search concepts in the knowledge graph, or walk the concepts related to one.",
		}, s.handleExploreConcepts)
	}

	if s.ports.Summary != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "summarize_chapter",
			Description: "Summarize one chapter of a book with its key points.",
		}, s.handleSummarizeChapter)
	}
}

// textResult wraps text in a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult reports a failure as text so the transport loop keeps running.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	result := textResult(fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

// handleSearchKnowledge handles the search_knowledge tool invocation.
func (s *Server) handleSearchKnowledge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchKnowledgeInput,
) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return errorResult("Error: query is required"), nil, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	logger.Debug("search_knowledge: %q limit=%d subject=%q sources=%v", query, limit, input.Subject, input.Sources)

	results, err := s.ports.Search.Search(ctx, query, domain.SearchOptions{
		Limit:     limit,
		BookSlugs: input.Sources,
		Subject:   input.Subject,
	})
	if err != nil {
		return errorResult("Error searching: %v", err), nil, nil
	}

	return textResult(formatResults(results, input.Detail)), nil, nil
}

// formatResults renders search results at the requested detail level.
func formatResults(results []domain.SearchResult, detail string) string {
	if len(results) == 0 {
		return "No results found."
	}

	parts := make([]string, 0, len(results))
	for i := range results {
		r := &results[i]
		switch detail {
		case detailCitations:
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, r.Citation()))
		case detailFull:
			parts = append(parts, fmt.Sprintf("%d. %s\n   Score: %.3f\n   ---\n   %s\n",
				i+1, r.Citation(), r.Score, r.Content))
		default:
			parts = append(parts, fmt.Sprintf("%d. %s\n   %s\n", i+1, r.Citation(), excerpt(r.Content)))
		}
	}
	return strings.Join(parts, "\n")
}

// excerpt cuts content to excerptLength runes.
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}

// handleExploreLibrary handles the explore_library tool invocation.
func (s *Server) handleExploreLibrary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExploreLibraryInput,
) (*mcp.CallToolResult, any, error) {
	subject := strings.TrimSpace(input.Subject)

	if subject == "" {
		subjects, err := s.ports.Library.Subjects(ctx)
		if err != nil {
			return errorResult("Error exploring library: %v", err), nil, nil
		}
		if len(subjects) == 0 {
			return textResult("The library is empty. Use 'bookwise add' to add books."), nil, nil
		}

		lines := []string{"Available subjects:\n"}
		for _, subj := range subjects {
			lines = append(lines, fmt.Sprintf("- %s: %d book(s), %d chunks", subj.Subject, subj.BookCount, subj.ChunkCount))
		}
		lines = append(lines, "\nUse explore_library with subject parameter to see books in a subject.")
		return textResult(strings.Join(lines, "\n")), nil, nil
	}

	books, err := s.ports.Library.ListBooks(ctx, subject)
	if err != nil {
		return errorResult("Error exploring library: %v", err), nil, nil
	}
	if len(books) == 0 {
		return textResult(fmt.Sprintf("No books found in subject '%s'.", subject)), nil, nil
	}

	lines := []string{fmt.Sprintf("Subject '%s' contains %d book(s):\n", subject, len(books))}
	for i := range books {
		book := &books[i]
		switch input.Detail {
		case detailNames:
			lines = append(lines, "- "+book.Title)
		case detailFull:
			lines = append(lines, fmt.Sprintf("- %s\n  Author: %s\n  Slug: %s\n  Subject: %s\n  Chunks: %d\n  Added: %s\n",
				book.Title, book.Author, book.Slug, book.Subject, book.ChunkCount, book.AddedAt.Format("2006-01-02")))
		default:
			lines = append(lines, fmt.Sprintf("- %s by %s [%s]", book.Title, book.Author, book.Slug))
		}
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// handleGetAdvice handles the get_advice tool invocation.
func (s *Server) handleGetAdvice(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetAdviceInput,
) (*mcp.CallToolResult, any, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return errorResult("Error: question is required"), nil, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultAdviceLimit
	}
	opts := domain.SearchOptions{Limit: limit, BookSlugs: input.Sources, Subject: input.Subject}

	if input.BySource {
		perspectives, err := s.ports.Advice.AdviseBySource(ctx, question, opts)
		if err != nil {
			return errorResult("Error getting advice: %v", err), nil, nil
		}
		return textResult(services.FormatPerspectives(question, perspectives)), nil, nil
	}

	advice, err := s.ports.Advice.Advise(ctx, question, opts)
	if err != nil {
		return errorResult("Error getting advice: %v", err), nil, nil
	}
	return textResult(services.FormatAdvice(advice)), nil, nil
}

// handleCompareSources handles the compare_sources tool invocation.
func (s *Server) handleCompareSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareSourcesInput,
) (*mcp.CallToolResult, any, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return errorResult("Error: topic is required"), nil, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultCompareLimit
	}

	cmp, err := s.ports.Advice.Compare(ctx, topic, domain.SearchOptions{
		Limit:     limit,
		BookSlugs: input.Sources,
		Subject:   input.Subject,
	})
	if err != nil {
		return errorResult("Error comparing sources: %v", err), nil, nil
	}
	if cmp.SourceCount == 0 {
		return textResult(fmt.Sprintf("No passages found about '%s'.", topic)), nil, nil
	}
	return textResult(services.FormatComparison(cmp)), nil, nil
}

// handleExploreTopics handles the explore_topics tool invocation.
func (s *Server) handleExploreTopics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExploreTopicsInput,
) (*mcp.CallToolResult, any, error) {
	var (
		topics []domain.Topic
		err    error
	)
	if query := strings.TrimSpace(input.Query); query != "" {
		topics, err = s.ports.Explore.SearchTopics(ctx, query)
	} else {
		topics, err = s.ports.Explore.Topics(ctx, input.Subject, input.Book)
	}
	if err != nil {
		return errorResult("Error exploring topics: %v", err), nil, nil
	}
	if len(topics) == 0 {
		return textResult("No topics found."), nil, nil
	}

	lines := []string{fmt.Sprintf("Topics (%d):\n", len(topics))}
	for i := range topics {
		topic := &topics[i]
		line := fmt.Sprintf("- %s [%s]: %d book(s), %d chunk(s)",
			topic.DisplayName, topic.ID, topic.BookCount, topic.ChunkCount)
		books, err := s.ports.Explore.BooksForTopic(ctx, topic.ID)
		if err != nil {
			return errorResult("Error exploring topics: %v", err), nil, nil
		}
		if len(books) > 0 {
			line += "\n  Books: " + strings.Join(books, ", ")
		}
		lines = append(lines, line)
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// handleExploreConcepts handles the explore_concepts tool invocation.
func (s *Server) handleExploreConcepts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExploreConceptsInput,
) (*mcp.CallToolResult, any, error) {
	if related := strings.TrimSpace(input.Related); related != "" {
		return s.relatedConcepts(ctx, related, input)
	}

	var (
		concepts []domain.ConceptNode
		err      error
	)
	if query := strings.TrimSpace(input.Query); query != "" {
		concepts, err = s.ports.Explore.SearchConcepts(ctx, query)
	} else {
		concepts, err = s.ports.Explore.Concepts(ctx, input.Book)
	}
	if err != nil {
		return errorResult("Error exploring concepts: %v", err), nil, nil
	}
	if len(concepts) == 0 {
		return textResult("No concepts found."), nil, nil
	}

	lines := []string{fmt.Sprintf("Concepts (%d):\n", len(concepts))}
	for i := range concepts {
		lines = append(lines, conceptLine(&concepts[i], ""))
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// relatedConcepts walks the graph from one concept.
func (s *Server) relatedConcepts(
	ctx context.Context, id string, input ExploreConceptsInput,
) (*mcp.CallToolResult, any, error) {
	var relationship domain.Relationship
	if input.Relationship != "" {
		parsed, err := domain.ParseRelationship(input.Relationship)
		if err != nil {
			return errorResult("Error: %v", err), nil, nil
		}
		relationship = parsed
	}
	depth := input.Depth
	if depth <= 0 {
		depth = 1
	}

	concept, err := s.ports.Explore.Concept(ctx, id)
	if err != nil {
		return errorResult("Error exploring concepts: %v", err), nil, nil
	}
	if concept == nil {
		return textResult(fmt.Sprintf("Concept '%s' not found.", id)), nil, nil
	}

	related, err := s.ports.Explore.RelatedConcepts(ctx, id, relationship, depth)
	if err != nil {
		return errorResult("Error exploring concepts: %v", err), nil, nil
	}
	if len(related) == 0 {
		return textResult(fmt.Sprintf("No concepts related to '%s'.", concept.DisplayName)), nil, nil
	}

	lines := []string{fmt.Sprintf("Related to %s (%d):\n", concept.DisplayName, len(related))}
	for i := range related {
		lines = append(lines, conceptLine(&related[i].Concept, related[i].Label))
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// conceptLine renders one concept, with its relationship label when walking the graph.
func conceptLine(c *domain.ConceptNode, label string) string {
	line := fmt.Sprintf("- %s [%s]", c.DisplayName, c.ID)
	if label != "" {
		line += " (" + label + ")"
	}
	if c.SourceBook != "" {
		line += " from " + c.SourceBook
	}
	if c.Description != "" {
		line += "\n  " + c.Description
	}
	return line
}

// handleSummarizeChapter handles the summarize_chapter tool invocation.
func (s *Server) handleSummarizeChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeChapterInput,
) (*mcp.CallToolResult, any, error) {
	book := strings.TrimSpace(input.Book)
	if book == "" {
		return errorResult("Error: book is required"), nil, nil
	}
	if input.Chapter <= 0 {
		return errorResult("Error: chapter must be a positive number"), nil, nil
	}

	summary, err := s.ports.Summary.SummariseChapter(ctx, book, input.Chapter)
	if errors.Is(err, domain.ErrNotFound) {
		return textResult(fmt.Sprintf("Chapter %d of '%s' not found.", input.Chapter, book)), nil, nil
	}
	if err != nil {
		return errorResult("Error summarizing chapter: %v", err), nil, nil
	}
	return textResult(services.FormatChapterSummary(summary)), nil, nil
}
