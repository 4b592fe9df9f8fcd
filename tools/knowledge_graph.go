package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/cypher"
	"github.com/athapong/docgraph/pkg/graph/pipeline"
	"github.com/athapong/docgraph/pkg/graph/processors"
	"github.com/athapong/docgraph/services"
	"github.com/athapong/docgraph/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// ExtractorFactory builds the extractor for a provider name, returning the
// resolved provider.
type ExtractorFactory func(provider string) (graph.Extractor, string, error)

// KnowledgeGraphTools serves the extraction tools. Runs for the same
// provider share a pipeline and therefore run one at a time.
type KnowledgeGraphTools struct {
	loader     *processors.Loader
	newExtract ExtractorFactory
	compiler   *cypher.Compiler
	logger     *logrus.Logger

	mutex     sync.Mutex
	pipelines map[string]*pipeline.Pipeline
}

// NewKnowledgeGraphTools wires the tools to a document loader and an
// extractor factory.
func NewKnowledgeGraphTools(loader *processors.Loader, factory ExtractorFactory, logger *logrus.Logger) *KnowledgeGraphTools {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if loader == nil {
		loader = processors.NewLoader(logger)
	}
	return &KnowledgeGraphTools{
		loader:     loader,
		newExtract: factory,
		compiler:   cypher.NewCompiler(logger),
		logger:     logger,
		pipelines:  make(map[string]*pipeline.Pipeline),
	}
}

func RegisterKnowledgeGraphTools(s *server.MCPServer, logger *logrus.Logger) {
	kg := NewKnowledgeGraphTools(nil, func(provider string) (graph.Extractor, string, error) {
		return services.NewExtractor(provider, "", logger)
	}, logger)
	kg.Register(s)
}

// Register adds the tools to s.
func (kg *KnowledgeGraphTools) Register(s *server.MCPServer) {
	extractTool := mcp.NewTool("extract_knowledge_graph",
		mcp.WithDescription("Extract a knowledge graph of entities and relationships from technical documents (images, PDF, HTML or text) and return a Cypher script that upserts it into Neo4j"),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Comma-separated list of document files or directories to read")),
		mcp.WithString("provider", mcp.Description("Extraction backend: gemini, openai, deepseek or prose (offline). Defaults to EXTRACTOR_PROVIDER or gemini")),
	)
	s.AddTool(extractTool, util.ErrorGuard(kg.extractHandler))

	cypherTool := mcp.NewTool("generate_cypher",
		mcp.WithDescription("Compile knowledge graph JSON ({nodes, relationships}) into a Cypher MERGE script"),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Graph JSON with 'nodes' and 'relationships' arrays")),
	)
	s.AddTool(cypherTool, util.ErrorGuard(kg.generateCypherHandler))
}

func (kg *KnowledgeGraphTools) pipelineFor(provider string) (*pipeline.Pipeline, error) {
	kg.mutex.Lock()
	defer kg.mutex.Unlock()

	if p, ok := kg.pipelines[provider]; ok {
		return p, nil
	}

	extractor, resolved, err := kg.newExtract(provider)
	if err != nil {
		return nil, err
	}
	p := pipeline.New(extractor, pipeline.WithLogger(kg.logger), pipeline.WithProvider(resolved))
	kg.pipelines[provider] = p
	return p, nil
}

func (kg *KnowledgeGraphTools) extractHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := splitPaths(util.StringArg(request, "paths"))
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths must be a non-empty comma-separated string"), nil
	}

	p, err := kg.pipelineFor(util.StringArg(request, "provider"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to configure extractor: %v", err)), nil
	}

	parts, err := kg.loader.Load(ctx, paths)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read documents: %v", err)), nil
	}

	result, err := p.Run(ctx, parts)
	if err != nil {
		return mcp.NewToolResultError(pipeline.UserMessage(err)), nil
	}
	if result.Status == pipeline.StatusEmpty {
		return mcp.NewToolResultText(result.Message), nil
	}

	graphJSON, err := json.MarshalIndent(result.Graph, "", "  ")
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(result.Query())
	if len(result.Issues) > 0 {
		b.WriteString("\n// Validation issues:\n")
		for _, issue := range result.Issues {
			b.WriteString("// - " + issue.String() + "\n")
		}
	}
	b.WriteString("\n// Graph JSON:\n")
	b.Write(graphJSON)
	return mcp.NewToolResultText(b.String()), nil
}

func (kg *KnowledgeGraphTools) generateCypherHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := util.StringArg(request, "graph")
	if strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("graph must be a JSON string"), nil
	}

	g, err := graph.DecodeGraphData([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid graph: %v", err)), nil
	}
	return mcp.NewToolResultText(kg.compiler.Compile(g).String()), nil
}

func splitPaths(raw string) []string {
	var paths []string
	for _, path := range strings.Split(raw, ",") {
		if path = strings.TrimSpace(path); path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}
