package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"labkb/internal/adapter/fs"
	"labkb/internal/domain"
)

var (
	addID      string
	addTitle   string
	addContent string
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Store a document in the knowledge base",
	Long: `Store a document. The content comes from a file argument or from the
--content flag. The title defaults to the file name without its extension.

Examples:
  labkb add notes/meeting.md
  labkb add --title "Deploy runbook" --content "Deploy with docker compose."
  labkb add notes/meeting.md --id meeting-2026-08`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addID, "id", "", "document id (default is a generated UUID)")
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "document title")
	addCmd.Flags().StringVar(&addContent, "content", "", "document content (instead of a file)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := addTitle
	content := addContent

	if len(args) > 0 {
		text, err := fs.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		content = text
		if title == "" {
			base := filepath.Base(args[0])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	if content == "" {
		return fmt.Errorf("provide a file argument or --content")
	}

	id := addID
	if id == "" {
		id = uuid.NewString()
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ingest := newIngestUseCase(st)
	if err := ingest.AddDocument(domain.Document{
		ID:      id,
		Title:   title,
		Content: content,
	}); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	fmt.Printf("Stored document %s (%s)\n", id, title)
	return nil
}
