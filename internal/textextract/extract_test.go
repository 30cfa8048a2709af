package textextract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText_Extract(t *testing.T) {
	e := PlainText{}
	ctx := context.Background()

	t.Run("txt file", func(t *testing.T) {
		text, err := e.Extract(ctx, strings.NewReader("  some research text\n"), "paper.txt")
		require.NoError(t, err)
		assert.Equal(t, "some research text", text)
	})

	t.Run("md file", func(t *testing.T) {
		text, err := e.Extract(ctx, strings.NewReader("# Abstract"), "notes.MD")
		require.NoError(t, err)
		assert.Equal(t, "# Abstract", text)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := e.Extract(ctx, strings.NewReader("%PDF-1.4"), "paper.pdf")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := e.Extract(ctx, strings.NewReader("\xff\xfe"), "paper.txt")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := e.Extract(ctx, strings.NewReader("   \n\t"), "paper.txt")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("oversized file", func(t *testing.T) {
		big := strings.Repeat("a", MaxUploadBytes+1)
		_, err := e.Extract(ctx, strings.NewReader(big), "paper.txt")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})
}
