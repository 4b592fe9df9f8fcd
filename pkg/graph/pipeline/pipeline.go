// Package pipeline runs one extraction request end to end: document parts go
// to the injected extractor, the resulting graph is compiled into Cypher, and
// failures are turned into a single user-facing message.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/cypher"
	"github.com/athapong/docgraph/pkg/graph/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EmptyMessage is shown when the model found nothing. It is not an error.
const EmptyMessage = "The model couldn't extract any entities or relationships. Please try a different document or check the document quality."

// Status of a finished run
type Status string

const (
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// Result is what the presentation surfaces consume.
type Result struct {
	RunID   string
	Status  Status
	Graph   *graph.GraphData
	Script  *cypher.Script
	Issues  []graph.Issue
	Message string
}

// Query returns the generated script text, or "" when nothing was compiled.
func (r *Result) Query() string {
	if r == nil || r.Script == nil {
		return ""
	}
	return r.Script.String()
}

// Pipeline serialises extraction runs against a single extractor.
type Pipeline struct {
	extractor graph.Extractor
	compiler  *cypher.Compiler
	provider  string
	logger    *logrus.Logger
	mutex     sync.Mutex
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger shared by the pipeline and its compiler.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProvider names the extractor in logs and metrics.
func WithProvider(provider string) Option {
	return func(p *Pipeline) {
		p.provider = provider
	}
}

// New creates a pipeline around an injected extractor.
func New(extractor graph.Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		provider:  "unknown",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.New()
		p.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	p.compiler = cypher.NewCompiler(p.logger)
	return p
}

// Run extracts a graph from parts and compiles it. An empty extraction
// yields StatusEmpty with EmptyMessage and no error. Concurrent calls wait
// for the run in progress.
func (p *Pipeline) Run(ctx context.Context, parts []graph.Part) (*Result, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	runID := uuid.New().String()
	logger := p.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"provider": p.provider,
		"parts":    len(parts),
	})

	if len(parts) == 0 {
		metrics.ExtractionsTotal.WithLabelValues(string(StatusError)).Inc()
		logger.Warn("No document parts supplied")
		return nil, errors.WithStack(graph.ErrNoParts)
	}

	logger.Info("Starting extraction")
	start := time.Now()
	extraction, err := p.extractor.Extract(ctx, parts)
	elapsed := time.Since(start).Seconds()

	if err == nil && (extraction == nil || extraction.Graph == nil) {
		err = graph.PayloadError("extractor returned no graph")
	}
	if err != nil {
		metrics.ExtractionDuration.WithLabelValues(p.provider, string(StatusError)).Observe(elapsed)
		metrics.ExtractionsTotal.WithLabelValues(string(StatusError)).Inc()
		logger.WithError(err).Error("Extraction failed")
		return nil, errors.Wrap(err, "extract knowledge graph")
	}

	if extraction.Outcome == graph.OutcomeEmpty {
		metrics.ExtractionDuration.WithLabelValues(p.provider, string(StatusEmpty)).Observe(elapsed)
		metrics.ExtractionsTotal.WithLabelValues(string(StatusEmpty)).Inc()
		logger.Warn("Model returned an empty graph")
		return &Result{RunID: runID, Status: StatusEmpty, Message: EmptyMessage}, nil
	}

	metrics.ExtractionDuration.WithLabelValues(p.provider, string(StatusSuccess)).Observe(elapsed)
	metrics.ExtractionsTotal.WithLabelValues(string(StatusSuccess)).Inc()

	g := extraction.Graph
	issues := g.Validate()
	for _, issue := range issues {
		logger.WithField("issue", issue.Kind).Warn(issue.Message)
	}

	stats := g.Stats()
	metrics.RecordGraph(stats.LabelCounts, stats.TypeCounts)

	script := p.compiler.Compile(g)
	logger.WithFields(logrus.Fields{
		"nodes":         stats.NodeCount,
		"relationships": stats.RelationshipCount,
		"warnings":      len(script.Warnings),
		"duration":      elapsed,
	}).Info("Knowledge graph generated")

	return &Result{
		RunID:  runID,
		Status: StatusSuccess,
		Graph:  g,
		Script: script,
		Issues: issues,
	}, nil
}

// UserMessage converts any pipeline error into the single message shown to
// the user. The caller offers a retry.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var reason string
	switch {
	case errors.Is(err, context.Canceled):
		reason = "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		reason = "The model did not respond in time."
	case errors.Is(err, graph.ErrNoParts):
		reason = capitalize(graph.ErrNoParts.Error()) + "."
	case errors.Is(err, graph.ErrTooLarge):
		reason = "The documents are too large to process in one request."
	case errors.Is(err, graph.ErrInvalidPayload):
		reason = capitalize(graph.ErrInvalidPayload.Error()) + "."
	case errors.Is(err, graph.ErrTransport):
		reason = "Could not reach the model"
		var extractionErr *graph.ExtractionError
		if errors.As(err, &extractionErr) && extractionErr.Err != nil {
			reason += ": " + extractionErr.Err.Error()
		}
	default:
		reason = err.Error()
	}
	return "Failed to generate graph. " + reason
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
