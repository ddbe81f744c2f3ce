package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askQuery    string
	askProvider string
	askDoc      string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the knowledge base",
	Long: `Answer a question grounded in the stored documents. The relevant
passages are retrieved first and the language model is constrained to them;
when the model is unreachable the answer falls back to the passages
themselves.

Examples:
  labkb ask -q "how do we deploy the service?"
  labkb ask -q "what changed last sprint?" --provider ollama
  labkb ask -q "summarize this" --doc meeting-2026-08`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askProvider, "provider", "p", "", "generation provider (default from config)")
	askCmd.Flags().StringVar(&askDoc, "doc", "", "restrict grounding to one document id")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full response as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	answerUC := newAnswerUseCase(st)

	provider := askProvider
	if provider == "" {
		provider = cfg.Generation.DefaultProvider
	}
	if !contains(answerUC.Providers(), provider) {
		return fmt.Errorf("unknown provider %q (available: %s)",
			provider, strings.Join(answerUC.Providers(), ", "))
	}

	resp := answerUC.Answer(cmd.Context(), askQuery, provider, askDoc)

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !resp.Ok {
		return fmt.Errorf("%s", resp.Message)
	}

	fmt.Println(resp.Data.Answer)
	if len(resp.Data.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range resp.Data.Sources {
			fmt.Printf("  - %s (%s)\n", s.Title, s.ID)
		}
	}
	fmt.Printf("\n[%s]\n", resp.Data.Model)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
