package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Section is a slice of a syllabus under one outline heading.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Sections splits a PDF's text by the titles in its outline (bookmarks), at any depth.
// A line equal to an outline title starts a new section; text before the first heading is dropped.
func Sections(data []byte) (sections []Section, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", ErrExtraction)
	}
	defer func() {
		if r := recover(); r != nil {
			sections, err = nil, fmt.Errorf("%w: malformed pdf: %v", ErrExtraction, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrExtraction, err)
	}

	titles := make(map[string]struct{})
	collectTitles(r.Outline(), titles)

	text, err := PDFText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrExtraction, err)
	}
	return SplitByHeadings(text, titles)
}

func collectTitles(o pdf.Outline, dst map[string]struct{}) {
	if t := strings.TrimSpace(o.Title); t != "" {
		dst[t] = struct{}{}
	}
	for _, child := range o.Child {
		collectTitles(child, dst)
	}
}

// maxLineBytes bounds a single line of extracted text.
const maxLineBytes = 1 << 20

// SplitByHeadings groups the trimmed non-empty lines of text under the most recent heading.
// A line longer than maxLineBytes fails the whole split.
func SplitByHeadings(text string, headings map[string]struct{}) ([]Section, error) {
	var (
		out     []Section
		current *Section
		lines   []string
	)
	flush := func() {
		if current != nil {
			current.Content = strings.Join(lines, " ")
			out = append(out, *current)
		}
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if _, ok := headings[line]; ok && line != "" {
			flush()
			current = &Section{Heading: line}
			lines = nil
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: split sections: %v", ErrExtraction, err)
	}
	flush()
	return out, nil
}
