package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for bookwise resources.
	uriScheme = "bookwise://"

	jsonMIMEType = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "books",
		Name:        "books",
		Description: "Every book in the library",
		MIMEType:    jsonMIMEType,
	}, s.handleBooksResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "subjects",
		Name:        "subjects",
		Description: "Subjects with their book and chunk counts",
		MIMEType:    jsonMIMEType,
	}, s.handleSubjectsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{slug}/chapters",
		Name:        "book-chapters",
		Description: "Chapters of a specific book",
		MIMEType:    jsonMIMEType,
	}, s.handleChaptersResource)
}

// handleBooksResource returns every book.
func (s *Server) handleBooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	books, err := s.ports.Library.ListBooks(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	type bookInfo struct {
		Slug       string `json:"slug"`
		Title      string `json:"title"`
		Author     string `json:"author"`
		Subject    string `json:"subject"`
		ChunkCount int    `json:"chunk_count"`
	}

	infos := make([]bookInfo, len(books))
	for i := range books {
		infos[i] = bookInfo{
			Slug:       books[i].Slug,
			Title:      books[i].Title,
			Author:     books[i].Author,
			Subject:    books[i].Subject,
			ChunkCount: books[i].ChunkCount,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleSubjectsResource returns subject totals.
func (s *Server) handleSubjectsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	subjects, err := s.ports.Library.Subjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	if subjects == nil {
		subjects = []domain.SubjectSummary{}
	}
	return jsonResource(req.Params.URI, subjects)
}

// handleChaptersResource returns the chapters of one book.
func (s *Server) handleChaptersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract slug from URI: bookwise://books/{slug}/chapters
	slug := extractBookSlug(req.Params.URI)
	if slug == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	book, err := s.ports.Library.GetBook(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("getting book: %w", err)
	}
	if book == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chapters, err := s.ports.Library.Chapters(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}

	type chapterInfo struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	}

	infos := make([]chapterInfo, len(chapters))
	for i := range chapters {
		infos[i] = chapterInfo{Number: chapters[i].Number, Title: chapters[i].Title}
	}

	return jsonResource(req.Params.URI, infos)
}

// jsonResource marshals v as the single content of a resource.
func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}

// extractBookSlug extracts the slug from a URI like bookwise://books/{slug}/chapters.
func extractBookSlug(uri string) string {
	const prefix = uriScheme + "books/"
	const suffix = "/chapters"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	slug := strings.TrimSuffix(uri, suffix)
	if strings.Contains(slug, "/") {
		return ""
	}
	return slug
}
