package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docquery/internal/app"
	"docquery/internal/domain"
	"docquery/internal/inbox"
	"docquery/internal/indexer"
	"docquery/internal/storage"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdf]",
	Short: "Extract, chunk and index a PDF document",
	Long: `Extracts the text of a PDF, splits it into chunks and adds them to the index.
Without --id the document id is derived from the file contents, so ingesting the
same file twice is refused.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats [document-id]",
	Short: "Show index coverage, or the statistics of one document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Remove a document and its chunks from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var topicsCmd = &cobra.Command{
	Use:   "topics [document-id]",
	Short: "Show the topics, vocabulary and grammar points extracted from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopics,
}

var (
	ingestID  string
	ingestOCR bool
)

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (default: content hash)")
	ingestCmd.Flags().BoolVar(&ingestOCR, "ocr", true, "recognize pages without a text layer")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(topicsCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		id := ingestID
		if id == "" {
			var err error
			if id, err = inbox.DocumentID(path); err != nil {
				return fmt.Errorf("failed to hash %s: %w", path, err)
			}
		}

		result, err := a.Pipeline.Ingest(ctx, indexer.IngestRequest{
			DocumentID: id,
			Path:       path,
			Filename:   filepath.Base(path),
			OCR:        ingestOCR && a.Config.OCREnabled,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("document %s is already indexed; delete it first to re-ingest", id)
		}
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		printIngestResult(cmd, result)
		return nil
	})
}

func printIngestResult(cmd *cobra.Command, r *indexer.IngestResult) {
	doc := r.Document
	cmd.Printf("%s Indexed %s\n", success("✓"), heading(doc.Filename))
	cmd.Printf("  ID:        %s\n", doc.ID)
	if doc.Title != "" {
		cmd.Printf("  Title:     %s\n", doc.Title)
	}
	cmd.Printf("  Pages:     %d", doc.PageCount)
	if r.OCRPages > 0 {
		cmd.Printf(" (%d via OCR)", r.OCRPages)
	}
	cmd.Println()
	cmd.Printf("  Language:  %s (%.2f)\n", doc.LanguageName, doc.LanguageConfidence)
	cmd.Printf("  Chunks:    %d  tokens min %d / max %d / mean %.1f / p95 %d\n",
		r.Chunks, r.TokenStats.Min, r.TokenStats.Max, r.TokenStats.Mean, r.TokenStats.P95)
	if len(doc.Keywords) > 0 {
		cmd.Printf("  Keywords:  %s\n", strings.Join(doc.Keywords, ", "))
	}
	cmd.Printf("  Duration:  %s\n", r.Duration.Round(time.Millisecond))
	for _, w := range r.Warnings {
		cmd.Printf("  %s %s\n", warning("!"), w)
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		docs, err := a.DocumentService.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(docs) == 0 {
			cmd.Println("No documents indexed")
			return nil
		}
		for i := range docs {
			d := &docs[i]
			cmd.Printf("%s  %s\n", heading(d.ID), d.Filename)
			cmd.Printf("    %d pages, %d chunks, %s, %s\n", d.PageCount, d.ChunkCount, d.LanguageName,
				faint(d.CreatedAt.Format("2006-01-02 15:04")))
		}
		cmd.Printf("\nTotal: %d documents\n", len(docs))
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if len(args) == 0 {
			coverage, err := a.DocumentService.Coverage(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute coverage: %w", err)
			}
			cmd.Println(heading("Index coverage"))
			cmd.Printf("  Documents:          %d\n", coverage.DocsProcessed)
			cmd.Printf("  Without chunks:     %d\n", coverage.DocsWith0Chunks)
			cmd.Printf("  Chunks indexed:     %d\n", coverage.ChunksIndexed)
			cmd.Printf("  Tokens per chunk:   min %d / max %d / mean %.1f / p95 %d\n",
				coverage.ChunkTokenStats.Min, coverage.ChunkTokenStats.Max,
				coverage.ChunkTokenStats.Mean, coverage.ChunkTokenStats.P95)
			cmd.Printf("  Chunker version:    %s\n", coverage.ChunkerVersion)
			cmd.Printf("  Index version:      %s\n", coverage.IndexVersion)
			return nil
		}

		stats, err := a.DocumentService.Stats(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		doc := stats.Document
		cmd.Println(heading(doc.Filename))
		cmd.Printf("  ID:        %s\n", doc.ID)
		cmd.Printf("  Pages:     %d\n", doc.PageCount)
		cmd.Printf("  Language:  %s (%s)\n", doc.LanguageName, doc.Language)
		if stats.Index != nil {
			cmd.Printf("  Chunks:    %d (%d glossary)\n", stats.Index.TotalChunks, stats.Index.Glossary)
			for _, tier := range domain.Difficulties {
				cmd.Printf("    %-13s %d\n", tier, stats.Index.ByDifficulty[tier])
			}
		}
		cmd.Printf("  Tokens:    min %d / max %d / mean %.1f / p95 %d\n",
			stats.TokenStats.Min, stats.TokenStats.Max, stats.TokenStats.Mean, stats.TokenStats.P95)
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		removed, err := a.DocumentService.Delete(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", args[0], err)
		}
		cmd.Printf("%s Deleted %s (%d chunks removed)\n", success("✓"), args[0], removed)
		return nil
	})
}

func runTopics(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		topics, err := a.DocumentService.Topics(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get topics for %s: %w", args[0], err)
		}

		cmd.Println(heading(topics.Summary))
		if len(topics.Topics) == 0 {
			cmd.Println("  No topics were extracted")
		}
		for i, t := range topics.Topics {
			cmd.Printf("  %d. %s %s\n", i+1, t.Name, faint("("+string(t.Difficulty)+")"))
			if t.Description != "" {
				cmd.Printf("     %s\n", t.Description)
			}
			if len(t.KeyVocabulary) > 0 {
				cmd.Printf("     %s\n", faint(strings.Join(t.KeyVocabulary, ", ")))
			}
		}

		if len(topics.Vocabulary) > 0 {
			cmd.Println()
			cmd.Println(heading("Vocabulary"))
			for _, term := range topics.Vocabulary {
				cmd.Printf("  %-20s %s %s\n", term.Word, term.Definition, faint("("+string(term.Difficulty)+")"))
			}
		}

		if len(topics.GrammarPoints) > 0 {
			cmd.Println()
			cmd.Println(heading("Grammar"))
			for _, point := range topics.GrammarPoints {
				cmd.Printf("  - %s\n", point)
			}
		}
		return nil
	})
}
