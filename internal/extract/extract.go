package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultChunkSize is the number of characters per indexed chunk.
const DefaultChunkSize = 300

var (
	// ErrEmpty is returned for an empty payload.
	ErrEmpty = errors.New("empty document")
	// ErrNotPDF is returned when the payload does not start with a PDF header.
	ErrNotPDF = errors.New("not a pdf document")
)

var pdfMagic = []byte("%PDF-")

// PDFText extracts plain text from an in-memory PDF.
func PDFText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return "", ErrNotPDF
	}

	text, err := extractPDF(data)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.ToValidUTF8(text, ""), nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Chunk splits text into consecutive pieces of at most size characters.
// Whitespace-only pieces are dropped.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		piece := string(runes[start:end])
		if strings.TrimSpace(piece) == "" {
			continue
		}
		out = append(out, piece)
	}
	return out
}
