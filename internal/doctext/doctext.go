// Package doctext turns uploaded lease documents into plain text ready for
// extraction. PDFs are parsed structurally; .txt files pass through.
package doctext

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// minTextChars is the minimum extracted length for a document to be
	// considered readable. Scanned-image PDFs typically land below this.
	minTextChars = 100

	// maxFileBytes caps document size at 50MB.
	maxFileBytes = 50 * 1024 * 1024

	// maxPages caps how many PDF pages are processed.
	maxPages = 50
)

// ErrUnreadable is returned when a document yields too little text to
// extract anything from, usually a scanned-image PDF.
var ErrUnreadable = eris.New("doctext: document is empty or unreadable (scanned image?)")

// Extract reads the document at path and returns its text content.
// Supported formats are .pdf and .txt.
func Extract(path string) (string, error) {
	if err := validateFile(path); err != nil {
		return "", err
	}

	var text string
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		text, err = extractPDF(path)
	case ".txt":
		text, err = extractPlain(path)
	default:
		return "", eris.Errorf("doctext: unsupported file type %q", ext)
	}
	if err != nil {
		return "", err
	}

	if len(strings.TrimSpace(text)) < minTextChars {
		return "", ErrUnreadable
	}

	zap.L().Info("document text extracted",
		zap.String("file", filepath.Base(path)),
		zap.Int("chars", len(text)))
	return text, nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "doctext: read text file")
	}
	return string(data), nil
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return eris.Wrapf(err, "doctext: stat %s", filepath.Base(path))
	}
	if info.Size() == 0 {
		return eris.New("doctext: file is empty")
	}
	if info.Size() > maxFileBytes {
		return eris.Errorf("doctext: file too large (%d bytes, max %d)", info.Size(), maxFileBytes)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		header := make([]byte, 5)
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrap(err, "doctext: open file")
		}
		defer f.Close()
		if _, err := f.Read(header); err != nil {
			return eris.Wrap(err, "doctext: read header")
		}
		if string(header) != "%PDF-" {
			return eris.New("doctext: not a valid PDF file")
		}
	}
	return nil
}
