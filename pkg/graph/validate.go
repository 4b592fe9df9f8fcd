package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tidwall/gjson"
)

// DecodeGraphData parses a model payload into a GraphData value. The payload
// must be a JSON object carrying array-valued "nodes" and "relationships"
// keys. A surrounding Markdown code fence is tolerated.
func DecodeGraphData(raw []byte) (*GraphData, error) {
	payload := trimCodeFence(string(raw))
	if payload == "" {
		return nil, PayloadError("empty response")
	}
	if !gjson.Valid(payload) {
		return nil, PayloadError("response is not valid JSON")
	}

	parsed := gjson.Parse(payload)
	if !parsed.IsObject() {
		return nil, PayloadError("response is not a JSON object")
	}

	nodes := parsed.Get("nodes")
	relationships := parsed.Get("relationships")
	if !nodes.Exists() || !relationships.Exists() {
		return nil, PayloadError("data missing 'nodes' or 'relationships' properties")
	}
	if !nodes.IsArray() || !relationships.IsArray() {
		return nil, PayloadError("'nodes' and 'relationships' must be arrays")
	}

	var g GraphData
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return nil, PayloadError(err.Error())
	}
	return &g, nil
}

func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if newline := strings.IndexByte(s, '\n'); newline >= 0 {
		s = s[newline+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// IssueKind classifies a structural problem in a graph
type IssueKind string

const (
	IssueEmptyNodeID        IssueKind = "empty_node_id"
	IssueDuplicateNodeID    IssueKind = "duplicate_node_id"
	IssueEmptyLabel         IssueKind = "empty_label"
	IssueEmptyRelationType  IssueKind = "empty_relationship_type"
	IssueUnresolvedEndpoint IssueKind = "unresolved_endpoint"
)

// Issue describes a structural problem. Issues never block compilation.
type Issue struct {
	Kind    IssueKind
	Index   int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s[%d]: %s", i.Kind, i.Index, i.Message)
}

// Validate reports structural problems only; graph semantics are not checked.
func (g *GraphData) Validate() []Issue {
	if g == nil {
		return nil
	}

	var issues []Issue
	seen := mapset.NewThreadUnsafeSet[string]()
	for i, node := range g.Nodes {
		if node.ID == "" {
			issues = append(issues, Issue{Kind: IssueEmptyNodeID, Index: i, Message: "node has an empty id"})
		} else if !seen.Add(node.ID) {
			issues = append(issues, Issue{Kind: IssueDuplicateNodeID, Index: i, Message: fmt.Sprintf("node id %q is repeated", node.ID)})
		}
		if node.Label == "" {
			issues = append(issues, Issue{Kind: IssueEmptyLabel, Index: i, Message: fmt.Sprintf("node %q has no label", node.ID)})
		}
	}

	for i, rel := range g.Relationships {
		if rel.Type == "" {
			issues = append(issues, Issue{Kind: IssueEmptyRelationType, Index: i, Message: fmt.Sprintf("relationship %s -> %s has no type", rel.Source, rel.Target)})
		}
		for _, endpoint := range []string{rel.Source, rel.Target} {
			if !seen.Contains(endpoint) {
				issues = append(issues, Issue{Kind: IssueUnresolvedEndpoint, Index: i, Message: fmt.Sprintf("relationship references unknown node %q", endpoint)})
			}
		}
	}
	return issues
}
