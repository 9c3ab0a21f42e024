package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	ChunkSize    = 1000 // characters per chunk
	ChunkOverlap = 200  // overlap between chunks
)

// PDFMaterials reads lesson material PDFs stored under Dir.
type PDFMaterials struct {
	Dir string
}

// Excerpt returns the first chunk of the lesson PDF at path, relative to Dir.
func (m PDFMaterials) Excerpt(path string) (string, error) {
	// keep lookups inside Dir
	full := filepath.Join(m.Dir, filepath.Clean("/"+path))
	text, err := ExtractTextFromPDF(full)
	if err != nil {
		return "", err
	}
	chunks := ChunkText(strings.Join(strings.Fields(text), " "))
	if len(chunks) == 0 {
		return "", nil
	}
	return chunks[0], nil
}

// ExtractTextFromPDF extracts all text from a PDF file
func ExtractTextFromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			// Continue even if one page fails
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}

// ChunkText splits text into overlapping chunks
func ChunkText(text string) []string {
	if len(text) == 0 {
		return []string{}
	}

	var chunks []string
	runes := []rune(text)
	start := 0

	for start < len(runes) {
		end := start + ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		// Move forward, but overlap
		start += ChunkSize - ChunkOverlap
	}

	return chunks
}
