package meter

import "strings"

// Graph is anything with named nodes and ordered outgoing edges
type Graph interface {
	Nodes() []string
	Edges(node string) []string
}

// Node is one vertex of an Adjacency list
type Node struct {
	Name string
	Next []string
}

// Adjacency is a Graph kept in iteration order
type Adjacency []Node

func (a Adjacency) Nodes() []string {
	out := make([]string, len(a))
	for i, n := range a {
		out[i] = n.Name
	}
	return out
}

func (a Adjacency) Edges(node string) []string {
	for _, n := range a {
		if n.Name == node {
			return n.Next
		}
	}
	return nil
}

// Graph returns the declared transitions of the table
func (t *Table) Graph() Adjacency {
	adj := make(Adjacency, 0, NumStates)
	for _, s := range t.States() {
		e := t.Entry(s)
		next := make([]string, len(e.Next))
		for i, n := range e.Next {
			next[i] = n.String()
		}
		adj = append(adj, Node{Name: s.String(), Next: next})
	}
	return adj
}

// WriteGraph outputs the edges of g as GraphViz statements, one per line
// with no trailing newline. Wrap it with Digraph to get a full document.
func WriteGraph(g Graph) string {
	var sb strings.Builder
	for _, name := range g.Nodes() {
		for _, dest := range g.Edges(name) {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("  " + name + " -> " + dest)
		}
	}
	return sb.String()
}

// Digraph wraps WriteGraph in a strict digraph statement
func Digraph(g Graph) string {
	return "strict digraph Meter {\n" + WriteGraph(g) + "\n}\n"
}

// Visit walks g depth first from start, calling fn once per node reached.
// The result maps every node of g to whether it was reached.
func Visit(g Graph, start string, fn func(string)) map[string]bool {
	visited := make(map[string]bool)
	for _, name := range g.Nodes() {
		visited[name] = false
	}
	var walk func(string)
	walk = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		if fn != nil {
			fn(name)
		}
		for _, next := range g.Edges(name) {
			walk(next)
		}
	}
	walk(start)
	return visited
}
