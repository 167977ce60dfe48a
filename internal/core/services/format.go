package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// comparisonPointRunes is how much of each key point a comparison shows.
const comparisonPointRunes = 150

// FormatAdvice renders synthesized advice as plain text.
func FormatAdvice(advice *domain.SynthesizedAdvice) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Question: %s\n", advice.Question))
	parts = append(parts, fmt.Sprintf("Summary: %s\n", advice.Summary))

	if len(advice.KeyPoints) > 0 {
		parts = append(parts, "\nKey Points:")
		for i, point := range advice.KeyPoints {
			parts = append(parts, fmt.Sprintf("  %d. %s", i+1, point))
		}
	}

	if len(advice.Citations) > 0 {
		parts = append(parts, "\nSources:")
		for _, citation := range advice.Citations {
			parts = append(parts, "  - "+citation)
		}
	}

	parts = append(parts, fmt.Sprintf("\n(Based on %d passages from %d source(s))",
		advice.ChunkCount, advice.SourceCount))

	return strings.Join(parts, "\n")
}

// FormatPerspectives renders one block per book.
func FormatPerspectives(question string, perspectives []domain.SourcePerspective) string {
	if len(perspectives) == 0 {
		return fmt.Sprintf("Question: %s\n\n%s", question, NoInformationSummary)
	}

	parts := []string{fmt.Sprintf("Question: %s\n", question)}
	for _, p := range perspectives {
		parts = append(parts, fmt.Sprintf("\n%s by %s:", p.BookTitle, p.BookAuthor))
		for _, point := range p.KeyPoints {
			parts = append(parts, "  - "+point)
		}
		for _, citation := range p.Citations {
			parts = append(parts, "  Source: "+citation)
		}
	}
	return strings.Join(parts, "\n")
}

// FormatComparison renders a source comparison as plain text.
func FormatComparison(cmp *domain.SourceComparison) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Topic: %s\n", cmp.Topic))
	parts = append(parts, fmt.Sprintf("Comparing %d source(s):\n", cmp.SourceCount))

	for _, p := range cmp.Perspectives {
		parts = append(parts, fmt.Sprintf("\n%s by %s:", p.BookTitle, p.BookAuthor))
		for _, point := range p.KeyPoints {
			parts = append(parts, fmt.Sprintf("  - %s...", truncateRunes(point, comparisonPointRunes)))
		}
	}

	if len(cmp.Agreements) > 0 {
		parts = append(parts, "\nAgreements:")
		for _, a := range cmp.Agreements {
			parts = append(parts, "  - "+a)
		}
	}

	if len(cmp.Differences) > 0 {
		parts = append(parts, "\nUnique Perspectives:")
		for _, d := range cmp.Differences {
			parts = append(parts, "  - "+d)
		}
	}

	return strings.Join(parts, "\n")
}

// FormatChapterSummary renders a chapter summary with an underlined heading.
func FormatChapterSummary(summary *domain.ChapterSummary) string {
	heading := fmt.Sprintf("Chapter %d: %s", summary.ChapterNumber, summary.ChapterTitle)
	parts := []string{
		heading,
		strings.Repeat("=", utf8.RuneCountInString(heading)),
		"",
		summary.Summary,
		"",
	}

	if len(summary.KeyPoints) > 0 {
		parts = append(parts, "Key Points:")
		for _, point := range summary.KeyPoints {
			parts = append(parts, "  • "+point)
		}
		parts = append(parts, "")
	}

	parts = append(parts, fmt.Sprintf("[Based on %d chunks, summarized by %s]", summary.ChunkCount, summary.Provider))
	return strings.Join(parts, "\n")
}

// FormatValidation renders a validation result.
func FormatValidation(result domain.ValidationResult) string {
	var parts []string

	if result.Valid {
		parts = append(parts, "Validation passed!")
	} else {
		parts = append(parts, "Validation failed!")
	}

	if len(result.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("\nErrors (%d):", len(result.Errors)))
		for _, e := range result.Errors {
			parts = append(parts, "  "+e.String())
		}
	}

	if len(result.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("\nWarnings (%d):", len(result.Warnings)))
		for _, w := range result.Warnings {
			parts = append(parts, "  "+w.String())
		}
	}

	return strings.Join(parts, "\n")
}

// FormatImportResult renders a curation import result.
func FormatImportResult(result domain.ImportResult) string {
	if !result.Success {
		return fmt.Sprintf("Import failed for '%s':\n  - %s", result.BookSlug, strings.Join(result.Errors, "\n  - "))
	}
	return fmt.Sprintf("Successfully imported '%s':\n"+
		"  - %d principles\n"+
		"  - %d strategies\n"+
		"  - %d concepts added to graph\n"+
		"  - %d topics registered",
		result.BookSlug,
		result.PrinciplesImported,
		result.StrategiesImported,
		result.ConceptsAdded,
		result.TopicsAdded)
}
