package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"courseassist/internal/extract"
	"courseassist/internal/knowledge"
	"courseassist/internal/logging"
)

type UploadErrorKind string

const (
	KindMissingFile       UploadErrorKind = "missing_file"
	KindUnsupportedFormat UploadErrorKind = "unsupported_format"
	KindExtractionFailed  UploadErrorKind = "extraction_failed"
	KindIndexingFailed    UploadErrorKind = "indexing_failed"
	KindInternal          UploadErrorKind = "internal"
)

var ErrMissingFile = errors.New("no file uploaded")

// UploadError classifies a failed upload for the transport layer.
type UploadError struct {
	Kind UploadErrorKind
	Err  error
}

func (e *UploadError) Error() string { return e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }

// KindOf returns the upload error kind of err, KindInternal if it carries none.
func KindOf(err error) UploadErrorKind {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindInternal
}

type DocumentIndexer interface {
	AddDocument(ctx context.Context, content, source string) (int, error)
}

type UploadService struct {
	indexer DocumentIndexer
	log     zerolog.Logger
}

func NewUploadService(indexer DocumentIndexer) *UploadService {
	return &UploadService{
		indexer: indexer,
		log:     logging.NewLogger("upload"),
	}
}

// Upload extracts the text of filename and adds it to the knowledge base under that name.
func (s *UploadService) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", &UploadError{Kind: KindMissingFile, Err: ErrMissingFile}
	}

	text, err := extract.Extract(filename, data)
	if err != nil {
		return "", classifyExtractErr(err)
	}

	n, err := s.indexer.AddDocument(ctx, text, filename)
	if err != nil {
		if errors.Is(err, knowledge.ErrIndexing) {
			return "", &UploadError{Kind: KindIndexingFailed, Err: err}
		}
		return "", &UploadError{Kind: KindInternal, Err: err}
	}

	s.log.Info().Str("filename", filename).Int("bytes", len(data)).Int("chunks", n).Msg("course document uploaded")
	return fmt.Sprintf("Successfully uploaded %s", filename), nil
}

// Outline splits a syllabus PDF into sections by its bookmark titles.
func (s *UploadService) Outline(filename string, data []byte) ([]extract.Section, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, &UploadError{Kind: KindMissingFile, Err: ErrMissingFile}
	}
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, &UploadError{
			Kind: KindUnsupportedFormat,
			Err:  fmt.Errorf("%w: outline needs a pdf, got %s", extract.ErrUnsupportedFormat, filename),
		}
	}
	sections, err := extract.Sections(data)
	if err != nil {
		return nil, classifyExtractErr(err)
	}
	if sections == nil {
		sections = []extract.Section{}
	}
	return sections, nil
}

func classifyExtractErr(err error) error {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return &UploadError{Kind: KindUnsupportedFormat, Err: err}
	case errors.Is(err, extract.ErrExtraction):
		return &UploadError{Kind: KindExtractionFailed, Err: err}
	default:
		return &UploadError{Kind: KindInternal, Err: err}
	}
}
