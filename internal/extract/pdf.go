// Package extract turns PDF documents into plaintext.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/brightisle/cv-screener/internal/failure"
)

// Extractor returns the plaintext of a document.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// PDF extracts text page by page. Pages that fail to decode are skipped.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

// ExtractText returns the trimmed plaintext of the PDF at path. Unreadable,
// scanned or empty documents yield an UnreadablePDF failure.
func (p *PDF) ExtractText(path string) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = failure.Errorf(failure.UnreadablePDF, "extract text", "%s: malformed pdf: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", failure.New(failure.UnreadablePDF, "extract text", fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		builder.WriteString(content)
		builder.WriteString("\n\n")
	}

	text = CleanText(builder.String())
	if text == "" {
		return "", failure.Errorf(failure.UnreadablePDF, "extract text", "%s: no text content found", path)
	}

	return text, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
