package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"docquery/internal/contextutil"
	"docquery/internal/domain"
)

const (
	pdfMIME = "application/pdf"

	// minPageChars is the trimmed length under which a page is treated as having
	// no extractable text.
	minPageChars = 10
)

// Options configures a Gateway.
type Options struct {
	MaxFileSizeBytes int64
	MaxPages         int
}

// ValidationResult is returned by Validate for a document that passed every check.
type ValidationResult struct {
	OK        bool     `json:"ok"`
	PageCount int      `json:"page_count"`
	SizeBytes int64    `json:"size_bytes"`
	MIMEType  string   `json:"mime_type"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Gateway validates documents and extracts their text.
type Gateway struct {
	reader     PageReader
	recognizer Recognizer
	opts       Options
}

// NewGateway creates a Gateway. recognizer may be nil, in which case OCR is never attempted.
func NewGateway(reader PageReader, recognizer Recognizer, opts Options) *Gateway {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = 50 * 1024 * 1024
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 500
	}
	return &Gateway{reader: reader, recognizer: recognizer, opts: opts}
}

// Validate checks that path is a readable PDF within the size and page limits.
// Failures are returned as *ValidationError.
func (g *Gateway) Validate(ctx context.Context, path string) (*ValidationResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, invalid(path, ErrUnreadable, "%v", err)
	}
	if info.IsDir() {
		return nil, invalid(path, ErrUnreadable, "is a directory")
	}
	size := info.Size()
	if size == 0 {
		return nil, invalid(path, ErrEmptyFile, "file has no content")
	}
	if size > g.opts.MaxFileSizeBytes {
		return nil, invalid(path, ErrTooLarge, "%.1f MB exceeds limit of %.1f MB",
			float64(size)/(1024*1024), float64(g.opts.MaxFileSizeBytes)/(1024*1024))
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, invalid(path, ErrUnreadable, "%v", err)
	}
	if !mtype.Is(pdfMIME) {
		return nil, invalid(path, ErrInvalidFormat, "detected %s", mtype.String())
	}

	pages, err := g.reader.PageCount(ctx, path)
	if err != nil {
		return nil, invalid(path, ErrUnreadable, "%v", err)
	}
	if pages == 0 {
		return nil, invalid(path, ErrUnreadable, "document has no pages")
	}
	if pages > g.opts.MaxPages {
		return nil, invalid(path, ErrTooManyPages, "%d pages exceeds limit of %d", pages, g.opts.MaxPages)
	}

	result := &ValidationResult{
		OK:        true,
		PageCount: pages,
		SizeBytes: size,
		MIMEType:  pdfMIME,
	}

	first, err := g.reader.PageText(ctx, path, 1)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, "could not read first page")
	case utf8.RuneCountInString(strings.TrimSpace(first)) < minPageChars:
		result.Warnings = append(result.Warnings, "first page has minimal extractable text")
	}

	logger.DebugContext(ctx, "document validated",
		"path", path,
		"pages", pages,
		"size_bytes", size,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// Extract reads the text of every page. Pages with less than minPageChars of text are
// passed through OCR when allowOCR is set and a recognizer is configured; recognition
// failures keep the original page text.
func (g *Gateway) Extract(ctx context.Context, path string, allowOCR bool) (*domain.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	texts, err := g.reader.Pages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	meta, err := g.reader.Metadata(ctx, path)
	if err != nil {
		logger.WarnContext(ctx, "failed to read document metadata", "path", path, "error", err)
	}

	pages := make([]domain.Page, 0, len(texts))
	ocrPages := 0
	for i, text := range texts {
		number := i + 1
		page := domain.Page{Number: number, Text: text}

		if allowOCR && g.recognizer != nil && utf8.RuneCountInString(strings.TrimSpace(text)) < minPageChars {
			recognized, err := g.recognizer.RecognizePage(ctx, path, number)
			switch {
			case err != nil:
				logger.WarnContext(ctx, "OCR failed, keeping extracted text",
					"path", path,
					"page", number,
					"error", err,
				)
			case strings.TrimSpace(recognized) != "":
				page.Text = recognized
				page.OCR = true
				ocrPages++
			}
		}

		page.WordCount = len(strings.Fields(page.Text))
		page.CharCount = utf8.RuneCountInString(page.Text)
		pages = append(pages, page)
	}

	fullText := joinPages(pages)
	lang := DetectLanguage(fullText)

	info, err := os.Stat(path)
	var size int64
	if err == nil {
		size = info.Size()
	}

	doc := &domain.Document{
		Filename:           filepath.Base(path),
		Pages:              pages,
		FullText:           fullText,
		Language:           lang.Code,
		LanguageName:       lang.Name,
		LanguageConfidence: lang.Confidence,
		Metadata:           meta,
		SizeBytes:          size,
		Duration:           time.Since(start),
	}

	logger.InfoContext(ctx, "document extracted",
		"path", path,
		"pages", len(pages),
		"ocr_pages", ocrPages,
		"language", lang.Code,
		"duration_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

func joinPages(pages []domain.Page) string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
