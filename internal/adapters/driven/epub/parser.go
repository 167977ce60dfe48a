// Package epub extracts chapters from EPUB books.
//
// An EPUB is a zip container. META-INF/container.xml names the OPF package
// document, whose metadata holds the title and author and whose spine lists
// the XHTML documents in reading order. Every document with visible text
// becomes one chapter.
package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.BookParser = (*Parser)(nil)

// Fallback metadata for books without a title or creator.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

const (
	containerPath = "META-INF/container.xml"

	// maxHeadingLen rejects headings that are really paragraphs.
	maxHeadingLen = 200
)

var documentMediaTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
}

// Parser reads EPUB files.
type Parser struct{}

// NewParser creates an EPUB parser.
func NewParser() *Parser {
	return &Parser{}
}

// Extensions returns the handled file extensions.
func (p *Parser) Extensions() []string {
	return []string{".epub"}
}

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDocument struct {
	Metadata struct {
		Titles   []string `xml:"title"`
		Creators []string `xml:"creator"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// Parse reads the book at filePath.
func (p *Parser) Parse(ctx context.Context, filePath string) (*domain.ParsedBook, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer r.Close()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}

	opfPath, err := rootfilePath(files)
	if err != nil {
		return nil, err
	}

	var pkg packageDocument
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}

	book := &domain.ParsedBook{
		Title:  firstNonBlank(pkg.Metadata.Titles, UnknownTitle),
		Author: firstNonBlank(pkg.Metadata.Creators, UnknownAuthor),
	}

	position := 0
	for _, href := range documentOrder(&pkg) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := resolveHref(opfPath, href)
		f, ok := files[name]
		if !ok {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		text := ExtractText(doc)
		if strings.TrimSpace(text) == "" {
			continue
		}

		end := position + utf8.RuneCountInString(text)
		book.Chapters = append(book.Chapters, domain.ParsedChapter{
			Number:        len(book.Chapters) + 1,
			Title:         chapterTitle(doc, name),
			Content:       text,
			StartPosition: position,
			EndPosition:   end,
		})
		position = end + 1
	}

	return book, nil
}

// ExtractText returns the visible text of a document: every text node trimmed,
// blank lines dropped, joined with newlines. Script, style and nav are skipped.
func ExtractText(doc *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav:
				return
			}
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(lines, "\n")
}

// chapterTitle picks the first h1, h2 or h3 with usable text, falling back
// to the file name.
func chapterTitle(doc *html.Node, name string) string {
	for _, tag := range []atom.Atom{atom.H1, atom.H2, atom.H3} {
		heading := findFirst(doc, tag)
		if heading == nil {
			continue
		}
		title := headingText(heading)
		if title != "" && utf8.RuneCountInString(title) < maxHeadingLen {
			return title
		}
	}
	return titleFromFileName(name)
}

func findFirst(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// headingText concatenates the trimmed text pieces of a heading.
func headingText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// titleFromFileName turns "part_one-intro.xhtml" into "Part One Intro".
func titleFromFileName(name string) string {
	stem := path.Base(name)
	stem = strings.TrimSuffix(stem, path.Ext(stem))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return titleCase(stem)
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest.
func titleCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// documentOrder lists document hrefs in spine order. Books without a spine
// fall back to manifest order.
func documentOrder(pkg *packageDocument) []string {
	byID := make(map[string]int, len(pkg.Manifest))
	for i, item := range pkg.Manifest {
		byID[item.ID] = i
	}

	var hrefs []string
	for _, ref := range pkg.Spine {
		i, ok := byID[ref.IDRef]
		if !ok {
			continue
		}
		if item := pkg.Manifest[i]; documentMediaTypes[item.MediaType] {
			hrefs = append(hrefs, item.Href)
		}
	}
	if len(hrefs) > 0 {
		return hrefs
	}

	for _, item := range pkg.Manifest {
		if documentMediaTypes[item.MediaType] {
			hrefs = append(hrefs, item.Href)
		}
	}
	return hrefs
}

func rootfilePath(files map[string]*zip.File) (string, error) {
	var c container
	if err := decodeXML(files, containerPath, &c); err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", errors.New("container lists no rootfile")
}

// resolveHref resolves a manifest href relative to the package document.
func resolveHref(opfPath, href string) string {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	return path.Join(path.Dir(opfPath), href)
}

func decodeXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func firstNonBlank(values []string, fallback string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}
