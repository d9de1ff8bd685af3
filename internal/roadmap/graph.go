package roadmap

import "strings"

// Edge is a directed parent -> child link between graph identifiers.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Vertex declares a graph identifier with a display label. Only produced in
// unique-identity mode.
type Vertex struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Graph describes the roadmap hierarchy. Roots and Edges keep first-seen
// order and hold no duplicates.
type Graph struct {
	Roots    []string `json:"roots"`
	Edges    []Edge   `json:"edges"`
	Vertices []Vertex `json:"vertices,omitempty"`
}

// Empty reports whether the graph declares nothing.
func (g Graph) Empty() bool {
	return len(g.Roots) == 0 && len(g.Edges) == 0 && len(g.Vertices) == 0
}

// DOT renders the graph in the Graphviz digraph dialect: boxed, rounded,
// filled nodes laid out left to right, one statement per root and per edge.
func (g Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph G {\n")
	sb.WriteString(`  node [shape=box, style="rounded,filled", fontname=Inter, fillcolor="#E6F7FF"];` + "\n")
	sb.WriteString("  edge [fontname=Inter];\n")
	sb.WriteString("  rankdir=LR;\n")
	for _, r := range g.Roots {
		sb.WriteString("  " + quote(r) + ";\n")
	}
	for _, v := range g.Vertices {
		sb.WriteString("  " + quote(v.ID) + " [label=" + quote(v.Label) + "];\n")
	}
	for _, e := range g.Edges {
		sb.WriteString("  " + quote(e.From) + " -> " + quote(e.To) + ";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// quote wraps an identifier for DOT. Identifiers never contain '"' (see
// identifier), but a backslash would escape the closing quote, so backslashes
// are doubled; Graphviz renders `\\` in a label as one backslash.
func quote(id string) string {
	return `"` + strings.ReplaceAll(id, `\`, `\\`) + `"`
}

type graphBuilder struct {
	g        Graph
	seenRoot map[string]bool
	seenEdge map[Edge]bool
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		g:        Graph{Roots: []string{}, Edges: []Edge{}},
		seenRoot: make(map[string]bool),
		seenEdge: make(map[Edge]bool),
	}
}

func (b *graphBuilder) root(id string) {
	if b.seenRoot[id] {
		return
	}
	b.seenRoot[id] = true
	b.g.Roots = append(b.g.Roots, id)
}

func (b *graphBuilder) edge(from, to string) {
	e := Edge{From: from, To: to}
	if b.seenEdge[e] {
		return
	}
	b.seenEdge[e] = true
	b.g.Edges = append(b.g.Edges, e)
}

func (b *graphBuilder) vertex(v Vertex) {
	b.g.Vertices = append(b.g.Vertices, v)
}

func (b *graphBuilder) graph() Graph {
	return b.g
}
