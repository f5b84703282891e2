package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

const DefaultPageMarker = `Seite:\s*(\d+)`

var (
	ErrInvalidDocument = errors.New("invalid pdf document")
	ErrEmptyDocument   = errors.New("pdf contains no extractable text")
)

// Document holds the non-empty page texts in extraction order.
// PageOffset is the index of the first page carrying a printed page marker.
type Document struct {
	Pages      []string
	PageOffset int
}

func (d *Document) FullText() string {
	return strings.Join(d.Pages, "\n\n")
}

type Extractor struct {
	marker *regexp.Regexp
	log    *logger.Logger
}

func NewExtractor(markerPattern string, log *logger.Logger) (*Extractor, error) {
	if strings.TrimSpace(markerPattern) == "" {
		markerPattern = DefaultPageMarker
	}
	re, err := regexp.Compile(markerPattern)
	if err != nil {
		return nil, fmt.Errorf("compile page marker: %w", err)
	}
	return &Extractor{marker: re, log: log.With("component", "PDFTextExtractor")}, nil
}

// Extract reads every page of data. Pages without text are dropped, so indexes
// into Pages are extracted-page positions, not printed page numbers.
func (e *Extractor) Extract(data []byte) (doc *Document, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrInvalidDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.log.Debug("skip unreadable page", "page", i, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	doc = &Document{Pages: pages, PageOffset: PageOffset(pages, e.marker)}
	e.log.Debug("pdf extracted", "raw_pages", total, "text_pages", len(pages), "page_offset", doc.PageOffset)
	return doc, nil
}

// PageOffset returns the index of the first page matching marker, or 0.
func PageOffset(pages []string, marker *regexp.Regexp) int {
	if marker == nil {
		return 0
	}
	for i, p := range pages {
		if marker.MatchString(p) {
			return i
		}
	}
	return 0
}
