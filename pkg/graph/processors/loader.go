package processors

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/metrics"
	"github.com/sirupsen/logrus"
)

// extensions the standard MIME table does not always know about
var textExtensions = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
}

// Loader turns files on disk into document parts by dispatching on MIME type.
type Loader struct {
	processors []graph.DocumentProcessor
	mutex      sync.RWMutex
	logger     *logrus.Logger
}

// NewLoader creates a loader with the image, HTML, PDF and text processors.
func NewLoader(logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	l := &Loader{logger: logger}
	l.AddProcessor(NewImageProcessor())
	l.AddProcessor(NewHTMLProcessor())
	l.AddProcessor(NewPDFProcessor())
	l.AddProcessor(NewTextProcessor())
	return l
}

// AddProcessor registers a processor. Exact MIME matches win over wildcard
// matches; among equals the first registered wins.
func (l *Loader) AddProcessor(processor graph.DocumentProcessor) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.processors = append(l.processors, processor)
}

// ProcessorFor returns the processor handling mimeType, or nil.
func (l *Loader) ProcessorFor(mimeType string) graph.DocumentProcessor {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var wildcard graph.DocumentProcessor
	for _, processor := range l.processors {
		for _, supported := range processor.SupportedTypes() {
			if supported == mimeType {
				return processor
			}
			if prefix, ok := strings.CutSuffix(supported, "*"); ok && wildcard == nil && strings.HasPrefix(mimeType, prefix) {
				wildcard = processor
			}
		}
	}
	return wildcard
}

// Load reads every path, expanding directories, and returns the parts in
// path order. Unsupported or unreadable files are logged and skipped.
func (l *Loader) Load(ctx context.Context, paths []string) ([]graph.Part, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}

	parts := make([]graph.Part, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		part, err := l.LoadFile(ctx, file)
		if err != nil {
			l.logger.WithError(err).WithField("file", file).Warn("Skipping document")
			continue
		}
		parts = append(parts, *part)

		kind := "text"
		if part.IsImage() {
			kind = "image"
		}
		metrics.DocumentPartsTotal.WithLabelValues(kind).Inc()
	}

	l.logger.WithFields(logrus.Fields{
		"files": len(files),
		"parts": len(parts),
	}).Info("Documents loaded")
	return parts, nil
}

// LoadFile converts a single file into a part.
func (l *Loader) LoadFile(ctx context.Context, path string) (*graph.Part, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues("loader", "read").Inc()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	mimeType := DetectMIMEType(path, content)
	processor := l.ProcessorFor(mimeType)
	if processor == nil {
		metrics.DocumentProcessingErrors.WithLabelValues("loader", "unsupported").Inc()
		return nil, fmt.Errorf("unsupported document type %s", mimeType)
	}

	part, err := processor.Process(ctx, content, map[string]interface{}{
		"filename":  filepath.Base(path),
		"filepath":  path,
		"mime_type": mimeType,
	})
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues(fmt.Sprintf("%T", processor), "process").Inc()
		return nil, err
	}
	return part, nil
}

// DetectMIMEType classifies a file by extension, falling back to content
// sniffing. Parameters such as charset are dropped.
func DetectMIMEType(path string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(path))

	mimeType := textExtensions[ext]
	if mimeType == "" {
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}

	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return mimeType
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasPrefix(d.Name(), ".") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
