package pdfextract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docchat/internal/pkg/pdfextract/pdftest"
)

func TestExtractPages(t *testing.T) {
	data := pdftest.Build("Hello first page", "Second page here")

	pages, err := ExtractPages(data)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "Hello first page")
	assert.Contains(t, pages[1], "Second page here")
}

func TestExtractPagesRejectsGarbage(t *testing.T) {
	_, err := ExtractPages([]byte("definitely not a pdf"))
	assert.Error(t, err)

	_, err = ExtractPages(nil)
	assert.Error(t, err)
}

func TestJoinPages(t *testing.T) {
	text, err := JoinPages([]string{"a", "  ", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", text)

	_, err = JoinPages([]string{"", " \n"})
	assert.True(t, errors.Is(err, ErrNoText))
}

func TestBuildEscapes(t *testing.T) {
	data := pdftest.Build(`paren (x) and \ slash`)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-1.4"))

	pages, err := ExtractPages(data)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0], "paren (x) and")
}
