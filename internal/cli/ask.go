package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docquery/internal/app"
	"docquery/internal/domain"
	"docquery/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask [document-id] [question]",
	Short: "Ask a question about an indexed document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

var (
	askTopK       int
	askDifficulty string
	askGlossary   bool
	askLevel      string
	askLanguage   string
	askJSON       bool
)

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 5, "number of chunks to retrieve")
	askCmd.Flags().StringVar(&askDifficulty, "difficulty", "", "only use chunks of this tier (Beginner, Intermediate, Advanced)")
	askCmd.Flags().BoolVar(&askGlossary, "glossary", false, "only use glossary chunks")
	askCmd.Flags().StringVar(&askLevel, "level", "", "explanation level (Beginner, Intermediate, Advanced)")
	askCmd.Flags().StringVar(&askLanguage, "language", "", "answer language (default English)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	difficulty, err := domain.ParseDifficulty(askDifficulty)
	if err != nil {
		return err
	}
	req := rag.AskRequest{
		DocumentID:     args[0],
		Question:       strings.Join(args[1:], " "),
		TopK:           askTopK,
		Difficulty:     difficulty,
		GlossaryOnly:   askGlossary,
		LanguageLevel:  askLevel,
		TargetLanguage: askLanguage,
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		answer, err := a.Engine.AnswerQuery(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to answer: %w", err)
		}
		if askJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		}
		printAnswer(cmd, answer)
		return nil
	})
}

func printAnswer(cmd *cobra.Command, a *rag.Answer) {
	switch {
	case a.Blocked:
		cmd.Printf("%s %s\n", warning("Question not answered:"), a.Message)
		cmd.Printf("  %s\n", faint(a.GuardReason))
		return
	case a.NoContext:
		cmd.Println(warning(a.Answer))
		return
	}

	cmd.Println(a.Answer)
	cmd.Println()
	meta := []string{fmt.Sprintf("confidence %.2f", a.Confidence)}
	if a.SourceSection != "" {
		meta = append(meta, "section "+a.SourceSection)
	}
	if a.PageNumber > 0 {
		meta = append(meta, fmt.Sprintf("page %d", a.PageNumber))
	}
	cmd.Println(faint(strings.Join(meta, " · ")))

	if len(a.SourceChunks) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(heading("Sources"))
	for _, s := range a.SourceChunks {
		cmd.Printf("  [p.%d %.2f] %s\n", s.Page, s.Confidence, strings.ReplaceAll(s.Text, "\n", " "))
	}
}
