// Package textextract is the boundary to the external text-extraction
// collaborator. Extraction is fallible and its failures are surfaced to the
// caller; no extraction algorithm is implemented here.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrExtractionFailed marks any extraction failure.
var ErrExtractionFailed = errors.New("text extraction failed")

// MaxUploadBytes caps accepted uploads.
const MaxUploadBytes = 10 << 20

// Extractor turns an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

// PlainText accepts documents that already are plain text (txt, md). Binary
// formats such as PDF need an external extraction service plugged in behind
// the Extractor interface.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, r io.Reader, filename string) (string, error) {
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".txt") && !strings.HasSuffix(lower, ".md") {
		return "", fmt.Errorf("%w: unsupported file type %q", ErrExtractionFailed, filename)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrExtractionFailed, MaxUploadBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", ErrExtractionFailed)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: file contains no text", ErrExtractionFailed)
	}
	return text, nil
}

var _ Extractor = PlainText{}
