package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/athapong/docgraph/pkg/graph/cypher"
	"github.com/athapong/docgraph/pkg/graph/pipeline"
	"github.com/athapong/docgraph/pkg/graph/processors"
	"github.com/athapong/docgraph/pkg/graph/storage"
	"github.com/athapong/docgraph/pkg/graph/visualizer"
	"github.com/athapong/docgraph/services"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	input           = flag.String("input", "", "Comma-separated document files or directories")
	outputFile      = flag.String("output", "knowledge_graph.json", "Output file path for the knowledge graph")
	cypherOutput    = flag.String("cypher-output", "knowledge_graph.cypher", "Output file for the Cypher script, or - for stdout")
	visualize       = flag.Bool("visualize", false, "Generate a visualization of the knowledge graph")
	visualizeOutput = flag.String("viz-output", "knowledge_graph.html", "Output file for the visualization")
	provider        = flag.String("provider", "", "Extraction backend: gemini, openai, deepseek or prose")
	model           = flag.String("model", "", "Model name, overriding the provider default")
	previous        = flag.String("previous", "", "Previously generated Cypher script to diff against")
	envFile         = flag.String("env", ".env", "Path to environment file")
	logLevel        = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	// Configure logging
	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading env file %s: %v", *envFile, err)
	}

	if *input == "" {
		logger.Fatal("Input must be specified")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.WithError(err).Error(pipeline.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logrus.Logger) error {
	extractor, resolved, err := services.NewExtractor(*provider, *model, logger)
	if err != nil {
		return err
	}

	var paths []string
	for _, path := range strings.Split(*input, ",") {
		if path = strings.TrimSpace(path); path != "" {
			paths = append(paths, path)
		}
	}

	parts, err := processors.NewLoader(logger).Load(ctx, paths)
	if err != nil {
		return err
	}
	logger.Infof("Processing %d document parts with %s...", len(parts), resolved)

	result, err := pipeline.New(extractor, pipeline.WithLogger(logger), pipeline.WithProvider(resolved)).Run(ctx, parts)
	if err != nil {
		return err
	}
	if result.Status == pipeline.StatusEmpty {
		logger.Warn(result.Message)
		return nil
	}

	// Store the knowledge graph
	if err := storage.NewJSONGraphStore(*outputFile).StoreGraph(ctx, result.Graph); err != nil {
		return fmt.Errorf("failed to store knowledge graph: %w", err)
	}
	logger.Infof("Knowledge graph generated with %d nodes and %d relationships",
		len(result.Graph.Nodes), len(result.Graph.Relationships))
	logger.Infof("Knowledge graph saved to %s", *outputFile)

	for _, issue := range result.Issues {
		logger.WithField("kind", issue.Kind).Warn(issue.Message)
	}

	script := result.Query()
	if *previous != "" {
		old, err := storage.NewScriptStore(*previous).LoadScript(ctx)
		if err != nil {
			logger.WithError(err).Warnf("Cannot read previous script %s", *previous)
		} else if diff := cypher.Diff(old, script); diff == "" {
			logger.Info("Cypher script unchanged since previous run")
		} else {
			fmt.Fprint(os.Stderr, diff)
		}
	}

	if *cypherOutput == "-" {
		fmt.Print(script)
	} else {
		if err := storage.NewScriptStore(*cypherOutput).StoreScript(ctx, script); err != nil {
			return fmt.Errorf("failed to store Cypher script: %w", err)
		}
		logger.Infof("Cypher script saved to %s", *cypherOutput)
	}

	// Visualize the graph if requested
	if *visualize {
		viz := visualizer.NewD3Visualizer(*visualizeOutput)
		if err := viz.Visualize(ctx, result.Graph); err != nil {
			logger.Errorf("Failed to visualize knowledge graph: %v", err)
		} else {
			logger.Infof("Visualization saved to %s", *visualizeOutput)
		}
	}
	return nil
}
