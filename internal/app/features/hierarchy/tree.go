// internal/app/features/hierarchy/tree.go
package hierarchy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/hierarchy.yaml
var defaultTree []byte

// Node is one position in the organisational tree.
type Node struct {
	Position string `yaml:"position" json:"position"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Heading  string `yaml:"heading,omitempty" json:"heading,omitempty"`
	Children []Node `yaml:"children,omitempty" json:"children"`
}

// Parse decodes a YAML list of nodes.
func Parse(data []byte) ([]Node, error) {
	var nodes []Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parse hierarchy: %w", err)
	}
	return nodes, nil
}

// Default returns the embedded tree.
func Default() ([]Node, error) {
	return Parse(defaultTree)
}

// Filter keeps nodes whose position or heading contains q (case-insensitive)
// together with their ancestors. A kept node retains only the children that
// survive the filter. An empty q returns nodes unchanged.
func Filter(nodes []Node, q string) []Node {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nodes
	}
	out := []Node{}
	for _, n := range nodes {
		if kept, ok := filterNode(n, q); ok {
			out = append(out, kept)
		}
	}
	return out
}

func filterNode(n Node, q string) (Node, bool) {
	match := strings.Contains(strings.ToLower(n.Position), q) ||
		strings.Contains(strings.ToLower(n.Heading), q)

	children := []Node{}
	for _, c := range n.Children {
		if kept, ok := filterNode(c, q); ok {
			children = append(children, kept)
		}
	}
	if !match && len(children) == 0 {
		return Node{}, false
	}
	n.Children = children
	return n, true
}
