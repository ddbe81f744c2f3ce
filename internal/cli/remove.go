package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"labkb/internal/domain"
)

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a document from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ingest := newIngestUseCase(st)
	if err := ingest.RemoveDocument(args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found", args[0])
		}
		return fmt.Errorf("failed to remove document: %w", err)
	}

	fmt.Printf("Removed document %s\n", args[0])
	return nil
}
