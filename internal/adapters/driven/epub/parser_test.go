package epub

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Calm Parent</dc:title>
    <dc:creator>Jane Doe</dc:creator>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="ch2" href="text/chapter_two.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="blank" href="text/blank.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="blank"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const testChapterOne = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>ch1</title><style>p { color: red; }</style></head>
<body>
  <nav><a href="#x">skip me</a></nav>
  <h1>Beginnings</h1>
  <p>First   paragraph.</p>
  <script>var x = 1;</script>
  <p>Second
     paragraph.</p>
</body>
</html>`

const testChapterTwo = `<html><body>
  <h2><span>Middle</span> <em>Ground</em></h2>
  <p>Body text.</p>
</body></html>`

const testBlank = `<html><body><p>   </p></body></html>`

func writeEPUB(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

func TestParser_Extensions(t *testing.T) {
	assert.Equal(t, []string{".epub"}, NewParser().Extensions())
}

func TestParser_Parse(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		containerPath:                  testContainer,
		"OEBPS/content.opf":            testOPF,
		"OEBPS/text/ch1.xhtml":         testChapterOne,
		"OEBPS/text/chapter_two.xhtml": testChapterTwo,
		"OEBPS/text/blank.xhtml":       testBlank,
		"OEBPS/nav.xhtml":              `<html><body><p>Navigation document</p></body></html>`,
	})

	book, err := NewParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "The Calm Parent", book.Title)
	assert.Equal(t, "Jane Doe", book.Author)
	require.Len(t, book.Chapters, 2)

	first := book.Chapters[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Beginnings", first.Title)
	assert.Equal(t, "ch1\nBeginnings\nFirst   paragraph.\nSecond\nparagraph.", first.Content)
	assert.Equal(t, 0, first.StartPosition)
	assert.Equal(t, len(first.Content), first.EndPosition)

	second := book.Chapters[1]
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "MiddleGround", second.Title)
	assert.Equal(t, "Middle\nGround\nBody text.", second.Content)
	assert.Equal(t, first.EndPosition+1, second.StartPosition)
	assert.Equal(t, second.StartPosition+len(second.Content), second.EndPosition)
}

func TestParser_MetadataFallbacks(t *testing.T) {
	opf := `<package><metadata></metadata>
  <manifest><item id="a" href="intro_part-one.xhtml" media-type="application/xhtml+xml"/></manifest>
  <spine></spine></package>`
	path := writeEPUB(t, map[string]string{
		containerPath:          strings.Replace(testContainer, "OEBPS/content.opf", "content.opf", 1),
		"content.opf":          opf,
		"intro_part-one.xhtml": `<html><body><p>Just text, no headings.</p></body></html>`,
	})

	book, err := NewParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, UnknownTitle, book.Title)
	assert.Equal(t, UnknownAuthor, book.Author)
	require.Len(t, book.Chapters, 1)
	assert.Equal(t, "Intro Part One", book.Chapters[0].Title)
}

func TestParser_LongHeadingIgnored(t *testing.T) {
	long := strings.Repeat("a", 250)
	doc, err := html.Parse(strings.NewReader("<h1>" + long + "</h1><h3>Short</h3>"))
	require.NoError(t, err)

	assert.Equal(t, "Short", chapterTitle(doc, "x.xhtml"))
}

func TestParser_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.epub")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

		_, err := NewParser().Parse(context.Background(), path)
		assert.Error(t, err)
	})

	t.Run("missing container", func(t *testing.T) {
		path := writeEPUB(t, map[string]string{"mimetype": "application/epub+zip"})

		_, err := NewParser().Parse(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "container")
	})

	t.Run("cancelled context", func(t *testing.T) {
		path := writeEPUB(t, map[string]string{
			containerPath:          testContainer,
			"OEBPS/content.opf":    testOPF,
			"OEBPS/text/ch1.xhtml": testChapterOne,
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewParser().Parse(ctx, path)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Chapter One", titleCase("chapter one"))
	assert.Equal(t, "Chapter1A", titleCase("chapter1a"))
	assert.Equal(t, "Already Upper", titleCase("ALREADY UPPER"))
}

func TestResolveHref(t *testing.T) {
	assert.Equal(t, "OEBPS/text/a b.xhtml", resolveHref("OEBPS/content.opf", "text/a%20b.xhtml#frag"))
	assert.Equal(t, "ch.xhtml", resolveHref("content.opf", "ch.xhtml"))
}
