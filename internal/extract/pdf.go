package extract

import (
	"context"
	"fmt"
	"strings"

	"multivector-rag/models"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// PDFExtractor turns a PDF file into an ordered sequence of typed elements.
// Text is pulled per page, split into blocks on blank lines, and each block
// is classified as prose or table-like layout. Image elements are not
// produced by this extractor; the pipeline accepts them from any
// ElementExtractor implementation that can supply base64 payloads.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the PDF at path and returns its elements in document order.
// A PDF with no extractable text yields an empty slice, not an error.
func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]models.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var elements []models.Element
	totalPages := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages rather than failing the whole document
			continue
		}

		for _, block := range splitBlocks(text) {
			kind := models.KindText
			if isTableBlock(block) {
				kind = models.KindTable
			}
			elements = append(elements, models.Element{
				ID:         uuid.NewString(),
				Kind:       kind,
				RawContent: block,
				Order:      len(elements),
			})
		}
	}

	return elements, nil
}

// splitBlocks splits page text into non-empty blocks separated by blank lines.
func splitBlocks(text string) []string {
	var blocks []string
	for _, raw := range strings.Split(text, "\n\n") {
		block := strings.TrimSpace(raw)
		if block == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// isTableBlock checks if a block contains table-like structure: several lines
// with multiple columns indicated by repeated spaces or tabs.
func isTableBlock(block string) bool {
	lines := strings.Split(block, "\n")
	tabularLines := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 10 && (strings.Count(line, "  ") > 2 || strings.Count(line, "\t") > 1) {
			tabularLines++
		}
	}

	return tabularLines > 3
}
