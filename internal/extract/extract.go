package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrExtraction        = errors.New("text extraction failed")
)

// legacy binary formats we refuse instead of decoding them as garbage text
var unsupportedSuffixes = map[string]struct{}{
	".doc": {},
	".ppt": {},
	".xls": {},
}

// Extract converts an uploaded file into plain text, dispatching on the filename suffix.
// Anything that is not .pdf or .docx is read as UTF-8 text.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := unsupportedSuffixes[ext]; ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	switch ext {
	case ".pdf":
		text, err := PDFText(data)
		if err != nil {
			return "", fmt.Errorf("%w: pdf: %v", ErrExtraction, err)
		}
		return text, nil
	case ".docx":
		text, err := DOCXText(data)
		if err != nil {
			return "", fmt.Errorf("%w: docx: %v", ErrExtraction, err)
		}
		return text, nil
	default:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: file is not valid utf-8 text", ErrExtraction)
		}
		return string(data), nil
	}
}

// PDFText extracts the plain text of every page.
// Returns empty string and nil error if the PDF has no extractable text.
func PDFText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", nil
	}
	// the parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
