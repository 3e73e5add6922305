// Package graph provides the undirected weighted graph the swarm optimizes over.
//
// Edges are stored once under their canonical (min, max) vertex pair, which
// makes every lookup symmetric. Insert, lookup and removal are O(1) amortized;
// a complete graph over V vertices stores V(V-1)/2 edges.
package graph

import (
	"sort"

	"github.com/copyleftdev/tspswarm/internal/optimization"
)

const component = "graph"

// Vertex identifies a city. Only identity matters; no ordering is implied.
type Vertex int

// Length is a non-negative edge weight.
type Length float64

// Edge is an undirected weighted edge with From < To.
type Edge struct {
	From   Vertex
	To     Vertex
	Length Length
}

// Graph is a vertex set plus a symmetric edge map.
// A Graph is not safe for concurrent mutation; concurrent reads are fine.
type Graph struct {
	vertices map[Vertex]struct{}
	edges    map[Vertex]map[Vertex]Length
	size     int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[Vertex]struct{}),
		edges:    make(map[Vertex]map[Vertex]Length),
	}
}

// canonical orders a pair so that lookups do not depend on argument order.
func canonical(v1, v2 Vertex) (Vertex, Vertex) {
	if v2 < v1 {
		return v2, v1
	}
	return v1, v2
}

// AddVertex registers v. Adding an existing vertex is a no-op.
func (g *Graph) AddVertex(v Vertex) {
	g.vertices[v] = struct{}{}
}

// HasVertex reports whether v is registered.
func (g *Graph) HasVertex(v Vertex) bool {
	_, ok := g.vertices[v]
	return ok
}

// Order returns the number of vertices.
func (g *Graph) Order() int {
	return len(g.vertices)
}

// Size returns the number of stored edges.
func (g *Graph) Size() int {
	return g.size
}

// Vertices returns the vertex set in ascending order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, 0, len(g.vertices))
	for v := range g.vertices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddEdge stores an edge of the given length between v1 and v2, replacing any
// previous length for the pair. Self-loops are silently ignored. Both
// endpoints must already be registered.
func (g *Graph) AddEdge(v1, v2 Vertex, length Length) error {
	if v1 == v2 {
		return nil
	}
	for _, v := range [2]Vertex{v1, v2} {
		if !g.HasVertex(v) {
			return optimization.NewErrorf(optimization.ErrInvalidGraph,
				"vertex %d is not registered", v).
				WithComponent(component).WithOperation("AddEdge")
		}
	}
	if length < 0 {
		return optimization.NewErrorf(optimization.ErrInvalidGraph,
			"negative length %v for edge %d-%d", float64(length), v1, v2).
			WithComponent(component).WithOperation("AddEdge")
	}

	a, b := canonical(v1, v2)
	bucket, ok := g.edges[a]
	if !ok {
		bucket = make(map[Vertex]Length)
		g.edges[a] = bucket
	}
	if _, exists := bucket[b]; !exists {
		g.size++
	}
	bucket[b] = length
	return nil
}

// RemoveEdge deletes the edge between v1 and v2 if present. The bucket of the
// smaller vertex is dropped once it holds no edges.
func (g *Graph) RemoveEdge(v1, v2 Vertex) {
	a, b := canonical(v1, v2)
	bucket, ok := g.edges[a]
	if !ok {
		return
	}
	if _, exists := bucket[b]; exists {
		delete(bucket, b)
		g.size--
	}
	if len(bucket) == 0 {
		delete(g.edges, a)
	}
}

// Length returns the length of the edge between v1 and v2 and whether such an
// edge exists. Length(v, v) is always absent.
func (g *Graph) Length(v1, v2 Vertex) (Length, bool) {
	a, b := canonical(v1, v2)
	bucket, ok := g.edges[a]
	if !ok {
		return 0, false
	}
	l, ok := bucket[b]
	return l, ok
}

// EdgeLength returns the length of the edge between v1 and v2, or 0 when there
// is none. A zero-length edge and a missing edge are indistinguishable here;
// use Length when the difference matters.
func (g *Graph) EdgeLength(v1, v2 Vertex) Length {
	l, _ := g.Length(v1, v2)
	return l
}

// Edges returns every stored edge ordered by From then To.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.size)
	for a, bucket := range g.edges {
		for b, l := range bucket {
			out = append(out, Edge{From: a, To: b, Length: l})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// IsComplete reports whether every pair of distinct vertices is connected.
func (g *Graph) IsComplete() bool {
	n := len(g.vertices)
	if g.size != n*(n-1)/2 {
		return false
	}
	vs := g.Vertices()
	for i := range vs {
		for j := i + 1; j < len(vs); j++ {
			if _, ok := g.Length(vs[i], vs[j]); !ok {
				return false
			}
		}
	}
	return true
}

// Validate checks that g can host a tour search: at least two vertices and an
// edge between every pair.
func (g *Graph) Validate() error {
	if n := g.Order(); n < 2 {
		return optimization.NewErrorf(optimization.ErrInvalidGraph,
			"graph has %d vertices, need at least 2", n).
			WithComponent(component).WithOperation("Validate")
	}
	if !g.IsComplete() {
		n := g.Order()
		return optimization.NewErrorf(optimization.ErrInvalidGraph,
			"graph is not complete: %d of %d edges", g.size, n*(n-1)/2).
			WithComponent(component).WithOperation("Validate")
	}
	return nil
}
