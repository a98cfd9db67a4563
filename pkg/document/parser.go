package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// maxTitleLength bounds the derived document title.
const maxTitleLength = 100

// Parser extracts plain UTF-8 text from documents, dispatching on the
// file extension. The zero value is ready to use.
type Parser struct{}

// Parse reads the file at path and returns its extracted text. Unknown
// extensions fail with *UnsupportedFormatError; decoder failures fail
// with *ParseError.
func (p *Parser) Parse(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return "", &UnsupportedFormatError{Path: path, Ext: ext}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}

	switch ext {
	case ".txt", ".md":
		return string(data), nil
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", &ParseError{Path: path, Err: err}
		}
		return text, nil
	case ".docx", ".doc":
		text, err := extractWord(data)
		if err != nil {
			return "", &ParseError{Path: path, Err: err}
		}
		return text, nil
	}
	return "", &UnsupportedFormatError{Path: path, Ext: ext}
}

// extractPDF pulls the plain text stream out of a PDF document.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	text, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return string(text), nil
}

// extractWord pulls paragraph and table text out of an OOXML Word
// document. Legacy .doc files that are not actually OOXML fail here and
// are skipped by the pipeline like any other parse failure.
func extractWord(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}

	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		s, ok := item.(fmt.Stringer)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.String())
	}
	return b.String(), nil
}

// Title derives a document title from its extracted text: the first
// non-empty line, trimmed, truncated with an ellipsis when it exceeds
// 100 characters. When no non-empty line exists the file's base name is
// used instead.
func Title(text, path string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) <= maxTitleLength {
			return line
		}
		return string(runes[:maxTitleLength-3]) + "..."
	}
	return filepath.Base(path)
}
