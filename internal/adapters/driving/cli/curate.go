package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/services"
)

var errCurationNotConfigured = errors.New("curation service not configured")

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Human curation workflow",
	Long: `Write principles, strategies and a philosophy for a book by hand in YAML,
validate them, and import them into the topic registry and knowledge graph.`,
}

var curateInitOutput string

var curateInitCmd = &cobra.Command{
	Use:         "init <slug>",
	Short:       "Generate curation templates for a book",
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runCurateInit,
}

var curateValidateCmd = &cobra.Command{
	Use:         "validate <dir>",
	Short:       "Validate curation files for a book",
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runCurateValidate,
}

var curateImportSubject string

var curateImportCmd = &cobra.Command{
	Use:         "import <dir>",
	Short:       "Import curated content into the library",
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runCurateImport,
}

func init() {
	curateInitCmd.Flags().StringVarP(&curateInitOutput, "output", "o", "",
		"output directory (default: ./knowledge/sources/<slug>)")
	curateImportCmd.Flags().StringVarP(&curateImportSubject, "subject", "S", domain.DefaultSubject,
		"subject for this book")

	curateCmd.AddCommand(curateInitCmd, curateValidateCmd, curateImportCmd)
	rootCmd.AddCommand(curateCmd)
}

func runCurateInit(cmd *cobra.Command, args []string) error {
	if curationService == nil {
		return errCurationNotConfigured
	}
	slug := args[0]

	dir := curateInitOutput
	if dir == "" {
		dir = filepath.Join("knowledge", "sources", slug)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}

	if _, err := os.Stat(dir); err == nil {
		cmd.Printf("Warning: Directory already exists: %s\n", dir)
		cmd.Print("Overwrite existing files? [y/N]: ")
		if !confirmed(cmd.InOrStdin()) {
			cmd.Println("Cancelled")
			return nil
		}
	}

	if err := curationService.InitTemplate(slug, dir); err != nil {
		return fmt.Errorf("failed to write templates: %w", err)
	}

	cmd.Printf("Created curation templates in: %s\n", dir)
	cmd.Println()
	cmd.Println("Edit the YAML files to add curated content, then run:")
	cmd.Printf("  bookwise curate validate %s\n", dir)
	cmd.Printf("  bookwise curate import %s\n", dir)
	return nil
}

func runCurateValidate(cmd *cobra.Command, args []string) error {
	if curationService == nil {
		return errCurationNotConfigured
	}

	dir, err := existingDir(args[0])
	if err != nil {
		return err
	}

	result := curationService.ValidateDirectory(dir)
	cmd.Println(services.FormatValidation(result))
	if !result.Valid {
		return errors.New("validation failed")
	}
	return nil
}

func runCurateImport(cmd *cobra.Command, args []string) error {
	if curationService == nil {
		return errCurationNotConfigured
	}

	dir, err := existingDir(args[0])
	if err != nil {
		return err
	}

	result := curationService.ImportDirectory(cmd.Context(), dir, curateImportSubject)
	cmd.Println(services.FormatImportResult(result))
	if !result.Success {
		return errors.New("import failed")
	}
	return nil
}

// existingDir resolves path and checks that it is a directory.
func existingDir(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory not found: %s", dir)
	}
	return dir, nil
}
