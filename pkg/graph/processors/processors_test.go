package processors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHTMLProcessor(t *testing.T) {
	html := `<html><head><title>Datasheet</title><style>p{color:red}</style></head>
<body><script>alert("x")</script><h2>Resistor R1</h2><p>Value: <b>10k</b></p></body></html>`

	part, err := NewHTMLProcessor().Process(context.Background(), []byte(html), map[string]interface{}{"filename": "r1.html"})
	require.NoError(t, err)

	assert.Equal(t, "r1.html", part.Name)
	assert.Equal(t, "text/html", part.MIMEType)
	assert.True(t, part.IsText())
	assert.Contains(t, part.Text, "# Datasheet")
	assert.Contains(t, part.Text, "Resistor R1")
	assert.Contains(t, part.Text, "10k")
	assert.NotContains(t, part.Text, "alert")
	assert.NotContains(t, part.Text, "color:red")
}

func TestTextProcessor(t *testing.T) {
	part, err := NewTextProcessor().Process(context.Background(), []byte("bolt M4"), map[string]interface{}{
		"filename":  "notes.md",
		"mime_type": "text/markdown",
	})
	require.NoError(t, err)
	assert.Equal(t, "bolt M4", part.Text)
	assert.Equal(t, "text/markdown", part.MIMEType)

	_, err = NewTextProcessor().Process(context.Background(), []byte{0xff, 0xfe, 0xfd}, nil)
	assert.Error(t, err)
}

func TestImageProcessor(t *testing.T) {
	part, err := NewImageProcessor().Process(context.Background(), pngHeader, map[string]interface{}{
		"filename":  "page1.png",
		"mime_type": "image/png",
	})
	require.NoError(t, err)
	assert.True(t, part.IsImage())

	_, err = NewImageProcessor().Process(context.Background(), nil, map[string]interface{}{"mime_type": "image/png"})
	assert.Error(t, err)
	_, err = NewImageProcessor().Process(context.Background(), pngHeader, nil)
	assert.Error(t, err)
}

func TestPDFProcessorRejectsGarbage(t *testing.T) {
	_, err := NewPDFProcessor().Process(context.Background(), []byte("not a pdf"), nil)
	assert.Error(t, err)
}

func TestProcessorFor(t *testing.T) {
	loader := NewLoader(nil)

	tests := []struct {
		mimeType string
		want     interface{}
	}{
		{"text/html", &HTMLProcessor{}},
		{"application/xhtml+xml", &HTMLProcessor{}},
		{"text/plain", &TextProcessor{}},
		{"text/markdown", &TextProcessor{}},
		{"application/json", &TextProcessor{}},
		{"application/pdf", &PDFProcessor{}},
		{"image/jpeg", &ImageProcessor{}},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.IsType(t, tt.want, loader.ProcessorFor(tt.mimeType))
		})
	}

	assert.Nil(t, loader.ProcessorFor("application/zip"))
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "text/markdown", DetectMIMEType("notes.MD", []byte("# notes")))
	assert.Equal(t, "text/plain", DetectMIMEType("bom.txt", nil))
	assert.Equal(t, "text/html", DetectMIMEType("index.html", nil))
	assert.Equal(t, "image/png", DetectMIMEType("scan", pngHeader))
	assert.Equal(t, "text/plain", DetectMIMEType("README", []byte("plain words")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, content []byte) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, content, 0644))
	}
	write("b.txt", []byte("second"))
	write("a.md", []byte("first"))
	write("scan", pngHeader)
	write(".hidden.txt", []byte("skip me"))
	write(".cache/c.txt", []byte("skip me too"))
	write("blob", []byte{0x00, 0x01, 0x02})
	write("sub/c.txt", []byte("third"))

	parts, err := NewLoader(nil).Load(context.Background(), []string{dir})
	require.NoError(t, err)

	names := make([]string, len(parts))
	for i, part := range parts {
		names[i] = part.Name
	}
	assert.Equal(t, []string{"a.md", "b.txt", "scan", "c.txt"}, names)
	assert.True(t, parts[2].IsImage())
	assert.Equal(t, "third", parts[3].Text)
}

func TestLoadMissingPath(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
