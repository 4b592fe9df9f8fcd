package visualizer

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/cypher"
	"github.com/pkg/errors"
)

// The HTML template for D3.js visualization
const d3Template = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <script src="https://d3js.org/d3.v7.min.js"></script>
    <style>
        body { 
            margin: 0;
            font-family: Arial, sans-serif;
        }
        #graph {
            width: 100%;
            height: 100vh;
            background-color: #f5f5f5;
        }
        .node {
            stroke: #fff;
            stroke-width: 1.5px;
        }
        .link {
            stroke: #999;
            stroke-opacity: 0.6;
        }
        .node-label {
            font-size: 10px;
            pointer-events: none;
        }
        .controls {
            position: absolute;
            top: 10px;
            left: 10px;
            background-color: rgba(255,255,255,0.8);
            padding: 10px;
            border-radius: 5px;
            box-shadow: 0 0 10px rgba(0,0,0,0.1);
        }
    </style>
</head>
<body>
    <div id="graph"></div>
    <div class="controls">
        <h3>{{.Title}}</h3>
        <p>Nodes: {{.NodeCount}}, Relationships: {{.EdgeCount}}</p>{{if .Dropped}}
        <p>Unresolved relationships not shown: {{.Dropped}}</p>{{end}}
        <div>
            <label for="label-filter">Filter by label:</label>
            <select id="label-filter">
                <option value="all">All Labels</option>
            </select>
        </div>
    </div>

    <script>
        const graphData = {{.GraphData}};
        
        // Initialize the force simulation
        const simulation = d3.forceSimulation(graphData.nodes)
            .force("link", d3.forceLink(graphData.links).id(d => d.id).distance(100))
            .force("charge", d3.forceManyBody().strength(-300))
            .force("center", d3.forceCenter(window.innerWidth / 2, window.innerHeight / 2));

        // Create SVG element
        const svg = d3.select("#graph")
            .append("svg")
            .attr("width", "100%")
            .attr("height", "100%")
            .call(d3.zoom().on("zoom", (event) => {
                g.attr("transform", event.transform);
            }));

        const g = svg.append("g");

        // Colour nodes by label
        const labels = [...new Set(graphData.nodes.map(node => node.label))];
        const colorScale = d3.scaleOrdinal(d3.schemeCategory10).domain(labels);

        // Add labels to filter dropdown
        labels.forEach(label => {
            d3.select("#label-filter")
                .append("option")
                .attr("value", label)
                .text(label);
        });

        // Create links
        const link = g.append("g")
            .selectAll("line")
            .data(graphData.links)
            .enter()
            .append("line")
            .attr("class", "link")
            .attr("stroke-width", 1.5);

        // Create nodes
        const node = g.append("g")
            .selectAll("circle")
            .data(graphData.nodes)
            .enter()
            .append("circle")
            .attr("class", "node")
            .attr("r", 8)
            .attr("fill", d => colorScale(d.label))
            .call(d3.drag()
                .on("start", dragstarted)
                .on("drag", dragged)
                .on("end", dragended));

        // Add labels to nodes
        const label = g.append("g")
            .selectAll("text")
            .data(graphData.nodes)
            .enter()
            .append("text")
            .attr("class", "node-label")
            .attr("dx", 12)
            .attr("dy", ".35em")
            .text(d => d.name);

        // Node tooltip
        node.append("title")
            .text(d => d.id + " (" + d.label + ")\n" + d.details);

        // Link tooltip
        link.append("title")
            .text(d => d.type);

        // Update positions on simulation tick
        simulation.on("tick", () => {
            link
                .attr("x1", d => d.source.x)
                .attr("y1", d => d.source.y)
                .attr("x2", d => d.target.x)
                .attr("y2", d => d.target.y);

            node
                .attr("cx", d => d.x)
                .attr("cy", d => d.y);

            label
                .attr("x", d => d.x)
                .attr("y", d => d.y);
        });

        // Label filter
        d3.select("#label-filter").on("change", function() {
            const selectedLabel = this.value;
            
            if (selectedLabel === "all") {
                node.style("visibility", "visible");
                link.style("visibility", "visible");
                label.style("visibility", "visible");
                return;
            }
            
            // Hide nodes that don't match the selected label
            node.style("visibility", d => d.label === selectedLabel ? "visible" : "hidden");
            
            // Hide labels for hidden nodes
            label.style("visibility", d => d.label === selectedLabel ? "visible" : "hidden");
            
            // Hide links that don't connect to visible nodes
            link.style("visibility", d => {
                const sourceVisible = d.source.label === selectedLabel;
                const targetVisible = d.target.label === selectedLabel;
                return sourceVisible || targetVisible ? "visible" : "hidden";
            });
        });

        // Drag functions
        function dragstarted(event, d) {
            if (!event.active) simulation.alphaTarget(0.3).restart();
            d.fx = d.x;
            d.fy = d.y;
        }

        function dragged(event, d) {
            d.fx = event.x;
            d.fy = event.y;
        }

        function dragended(event, d) {
            if (!event.active) simulation.alphaTarget(0);
            d.fx = null;
            d.fy = null;
        }
    </script>
</body>
</html>
`

// D3Visualizer creates D3.js-based visualizations of knowledge graphs
type D3Visualizer struct {
	outputPath string
	title      string
	tmpl       *template.Template
}

// Option configures a D3Visualizer
type Option func(*D3Visualizer)

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(v *D3Visualizer) {
		v.title = title
	}
}

// NewD3Visualizer creates a new D3.js visualizer
func NewD3Visualizer(outputPath string, opts ...Option) *D3Visualizer {
	v := &D3Visualizer{
		outputPath: outputPath,
		title:      "Knowledge Graph",
		tmpl:       template.Must(template.New("d3").Parse(d3Template)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type pageNode struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Name    string `json:"name"`
	Details string `json:"details"`
}

type pageLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

type pageGraph struct {
	Nodes []pageNode `json:"nodes"`
	Links []pageLink `json:"links"`
}

type pageData struct {
	Title     string
	GraphData pageGraph
	NodeCount int
	EdgeCount int
	Dropped   int
}

// buildLayout converts g into the page's node and link lists. Repeated node ids
// keep their first occurrence and relationships with an unknown endpoint are
// dropped, since D3 cannot link them. It returns the number dropped.
func buildLayout(g *graph.GraphData) (pageGraph, int) {
	layout := pageGraph{Nodes: []pageNode{}, Links: []pageLink{}}
	if g == nil {
		return layout, 0
	}

	index := graph.NewNodeIndex(g.Nodes)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if first, _ := index.Lookup(node.ID); first != node {
			continue
		}
		layout.Nodes = append(layout.Nodes, pageNode{
			ID:      node.ID,
			Label:   node.Label,
			Name:    displayName(node),
			Details: cypher.FormatProperties(node.Properties),
		})
	}

	dropped := 0
	for _, rel := range g.Relationships {
		_, sourceFound := index.Lookup(rel.Source)
		_, targetFound := index.Lookup(rel.Target)
		if !sourceFound || !targetFound {
			dropped++
			continue
		}
		layout.Links = append(layout.Links, pageLink{Source: rel.Source, Target: rel.Target, Type: rel.Type})
	}
	return layout, dropped
}

// displayName prefers a name-like property over the node id.
func displayName(node *graph.Node) string {
	if node.Properties != nil {
		for _, key := range []string{"name", "title", "part_number"} {
			if value, ok := node.Properties.Get(key); ok {
				if s, ok := value.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return node.ID
}

// Render produces the HTML page for g.
func (v *D3Visualizer) Render(g *graph.GraphData) ([]byte, error) {
	layout, dropped := buildLayout(g)
	data := pageData{
		Title:     v.title,
		GraphData: layout,
		NodeCount: len(layout.Nodes),
		EdgeCount: len(layout.Links),
		Dropped:   dropped,
	}

	var buf bytes.Buffer
	if err := v.tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "render visualization")
	}
	return buf.Bytes(), nil
}

// Visualize generates an HTML visualization of the knowledge graph
func (v *D3Visualizer) Visualize(ctx context.Context, g *graph.GraphData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := v.Render(g)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(v.outputPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(v.outputPath, page, 0644)
}
