package extraction

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"docquery/internal/domain"
)

// PageReader reads page text from a document on disk.
type PageReader interface {
	// PageCount returns the number of pages.
	PageCount(ctx context.Context, path string) (int, error)
	// PageText returns the text of one 1-based page.
	PageText(ctx context.Context, path string, page int) (string, error)
	// Pages returns the text of every page in order.
	Pages(ctx context.Context, path string) ([]string, error)
	// Metadata returns the document info dictionary.
	Metadata(ctx context.Context, path string) (domain.Metadata, error)
}

// NativeReader extracts text in-process with github.com/ledongthuc/pdf.
type NativeReader struct{}

// NewNativeReader creates a NativeReader.
func NewNativeReader() *NativeReader {
	return &NativeReader{}
}

// withDocument opens path and calls fn. Parser panics on malformed input are
// converted to ErrUnreadable.
func withDocument(path string, fn func(r *pdf.Reader) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: parser panic: %v", ErrUnreadable, rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return fn(r)
}

// PageCount returns the number of pages.
func (n *NativeReader) PageCount(_ context.Context, path string) (int, error) {
	var count int
	err := withDocument(path, func(r *pdf.Reader) error {
		count = r.NumPage()
		return nil
	})
	return count, err
}

// PageText returns the plain text of one page.
func (n *NativeReader) PageText(_ context.Context, path string, page int) (string, error) {
	var text string
	err := withDocument(path, func(r *pdf.Reader) error {
		if page < 1 || page > r.NumPage() {
			return fmt.Errorf("page %d out of range (1-%d)", page, r.NumPage())
		}
		var err error
		text, err = plainText(r.Page(page))
		return err
	})
	return text, err
}

// Pages returns the plain text of every page. A page that fails to decode yields
// empty text so that it can still be picked up by OCR.
func (n *NativeReader) Pages(_ context.Context, path string) ([]string, error) {
	var pages []string
	err := withDocument(path, func(r *pdf.Reader) error {
		total := r.NumPage()
		pages = make([]string, total)
		for i := 1; i <= total; i++ {
			text, err := plainText(r.Page(i))
			if err != nil {
				continue
			}
			pages[i-1] = text
		}
		return nil
	})
	return pages, err
}

// Metadata reads the Info dictionary from the trailer.
func (n *NativeReader) Metadata(_ context.Context, path string) (domain.Metadata, error) {
	var meta domain.Metadata
	err := withDocument(path, func(r *pdf.Reader) error {
		info := r.Trailer().Key("Info")
		meta = domain.Metadata{
			Title:        strings.TrimSpace(info.Key("Title").Text()),
			Author:       strings.TrimSpace(info.Key("Author").Text()),
			Subject:      strings.TrimSpace(info.Key("Subject").Text()),
			Creator:      strings.TrimSpace(info.Key("Creator").Text()),
			Producer:     strings.TrimSpace(info.Key("Producer").Text()),
			CreationDate: strings.TrimSpace(info.Key("CreationDate").Text()),
		}
		return nil
	})
	return meta, err
}

func plainText(p pdf.Page) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to decode page: %v", rec)
		}
	}()
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// PopplerReader extracts text with the poppler command line tools (pdfinfo, pdftotext).
type PopplerReader struct {
	runner CommandRunner
}

// NewPopplerReader creates a PopplerReader that runs commands with os/exec.
func NewPopplerReader() *PopplerReader {
	return NewPopplerReaderWithRunner(ExecRunner{})
}

// NewPopplerReaderWithRunner creates a PopplerReader with a custom command runner.
func NewPopplerReaderWithRunner(runner CommandRunner) *PopplerReader {
	return &PopplerReader{runner: runner}
}

// PageCount returns the "Pages:" field reported by pdfinfo.
func (p *PopplerReader) PageCount(ctx context.Context, path string) (int, error) {
	info, err := p.info(ctx, path)
	if err != nil {
		return 0, err
	}
	raw, ok := info["Pages"]
	if !ok {
		return 0, fmt.Errorf("%w: pdfinfo reported no page count", ErrUnreadable)
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid page count %q", ErrUnreadable, raw)
	}
	return count, nil
}

// PageText runs pdftotext on a single page.
func (p *PopplerReader) PageText(ctx context.Context, path string, page int) (string, error) {
	n := strconv.Itoa(page)
	out, err := p.runner.Run(ctx, "pdftotext", "-f", n, "-l", n, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\f"), nil
}

// Pages runs pdftotext once over the whole document and splits on form feeds,
// which pdftotext emits after every page.
func (p *PopplerReader) Pages(ctx context.Context, path string) ([]string, error) {
	count, err := p.PageCount(ctx, path)
	if err != nil {
		return nil, err
	}
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	parts := strings.Split(string(out), "\f")
	pages := make([]string, count)
	for i := 0; i < count && i < len(parts); i++ {
		pages[i] = parts[i]
	}
	return pages, nil
}

// Metadata returns the info fields reported by pdfinfo.
func (p *PopplerReader) Metadata(ctx context.Context, path string) (domain.Metadata, error) {
	info, err := p.info(ctx, path)
	if err != nil {
		return domain.Metadata{}, err
	}
	return domain.Metadata{
		Title:        info["Title"],
		Author:       info["Author"],
		Subject:      info["Subject"],
		Creator:      info["Creator"],
		Producer:     info["Producer"],
		CreationDate: info["CreationDate"],
	}, nil
}

func (p *PopplerReader) info(ctx context.Context, path string) (map[string]string, error) {
	out, err := p.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return parseInfo(out), nil
}

// parseInfo parses "Key:   value" lines from pdfinfo output.
func parseInfo(out []byte) map[string]string {
	info := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		info[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return info
}
