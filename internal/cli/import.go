package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labkb/internal/adapter/fs"
	"labkb/internal/domain"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Bulk-import documents from a directory",
	Long: `Import every matching file under a directory as a document. Include and
exclude patterns come from the import section of the config. Titles are taken
from the first markdown heading or the file name; ids are derived from the
relative path so re-importing updates in place.

Examples:
  labkb import ./notes
  labkb import ~/wiki --dir ~/kb`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	walker := fs.NewWalker(cfg.Import.Includes, cfg.Import.Excludes)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ingest := newIngestUseCase(st)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	imported, failed := 0, 0
	for _, file := range files {
		bar.Add(1)

		content, err := fs.ReadFile(file.Path)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("path", file.RelPath), zap.Error(err))
			failed++
			continue
		}

		// Deterministic per relative path so re-importing replaces
		// instead of duplicating.
		err = ingest.AddDocument(domain.Document{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(file.RelPath)).String(),
			Title:   titleFor(content, file.RelPath),
			Content: content,
			Metadata: map[string]string{
				"source": file.RelPath,
			},
		})
		if err != nil {
			logger.Warn("skipping file", zap.String("path", file.RelPath), zap.Error(err))
			failed++
			continue
		}
		imported++
	}

	fmt.Printf("Imported %d document(s)", imported)
	if failed > 0 {
		fmt.Printf(", skipped %d", failed)
	}
	fmt.Println()
	return nil
}

// titleFor prefers the first markdown heading, then the file name.
func titleFor(content, relPath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		break
	}
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
