// Package tour models a closed Hamiltonian cycle as a permutation of graph
// vertices together with its cached cost.
package tour

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
)

const component = "tour"

// InvalidCostValue is the raw value reported for a tour whose cost is undefined.
const InvalidCostValue = -1

// Cost is the length of a closed tour. Valid is false when the tour has no
// cost (fewer than two vertices); Value must not be compared in that case.
type Cost struct {
	Value float64
	Valid bool
}

// Invalid is the undefined cost.
var Invalid = Cost{Value: InvalidCostValue}

// Less reports whether c is a real cost strictly below other. An undefined
// cost is never less than anything, and any real cost is less than an
// undefined one.
func (c Cost) Less(other Cost) bool {
	if !c.Valid {
		return false
	}
	if !other.Valid {
		return true
	}
	return c.Value < other.Value
}

// Raw returns Value, or InvalidCostValue when the cost is undefined.
func (c Cost) Raw() float64 {
	if !c.Valid {
		return InvalidCostValue
	}
	return c.Value
}

func (c Cost) String() string {
	if !c.Valid {
		return "undefined"
	}
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

// Tour is an ordered sequence of vertices read as a cycle: the last vertex
// connects back to the first.
type Tour struct {
	vertices []graph.Vertex
	cost     Cost
}

// New returns an empty tour with room for n vertices.
func New(n int) *Tour {
	return &Tour{
		vertices: make([]graph.Vertex, 0, n),
		cost:     Invalid,
	}
}

// FromVertices builds a tour over a copy of vs and evaluates it against g.
func FromVertices(vs []graph.Vertex, g *graph.Graph) *Tour {
	t := &Tour{vertices: append([]graph.Vertex(nil), vs...)}
	t.Evaluate(g)
	return t
}

// Insert appends v. The cached cost is not refreshed; call Evaluate once the
// tour is complete.
func (t *Tour) Insert(v graph.Vertex) {
	t.vertices = append(t.vertices, v)
}

// Len returns the number of vertices.
func (t *Tour) Len() int {
	return len(t.vertices)
}

// At returns the vertex at position i. It panics if i is out of range.
func (t *Tour) At(i int) graph.Vertex {
	return t.vertices[i]
}

// Vertices returns a copy of the vertex sequence.
func (t *Tour) Vertices() []graph.Vertex {
	return append([]graph.Vertex(nil), t.vertices...)
}

// Cost returns the cached cost.
func (t *Tour) Cost() Cost {
	return t.cost
}

// PositionOf returns the first position of v. A vertex that is not part of
// the tour is a caller bug and yields ErrInvalidIndex.
func (t *Tour) PositionOf(v graph.Vertex) (int, error) {
	for i, u := range t.vertices {
		if u == v {
			return i, nil
		}
	}
	return -1, optimization.NewErrorf(optimization.ErrInvalidIndex,
		"vertex %d is not in the tour", v).
		WithComponent(component).WithOperation("PositionOf")
}

// Evaluate recomputes, caches and returns the cost of the closed cycle.
// Tours with fewer than two vertices have no cost.
func (t *Tour) Evaluate(g *graph.Graph) Cost {
	n := len(t.vertices)
	if n < 2 {
		t.cost = Invalid
		return t.cost
	}

	var sum float64
	for i := 0; i < n-1; i++ {
		sum += float64(g.EdgeLength(t.vertices[i], t.vertices[i+1]))
	}
	sum += float64(g.EdgeLength(t.vertices[n-1], t.vertices[0]))

	t.cost = Cost{Value: sum, Valid: true}
	return t.cost
}

// Swap exchanges the vertices at positions i and j and recomputes the whole
// cost. Positions outside [0, Len()-1] leave the tour untouched and return
// ErrInvalidIndex.
func (t *Tour) Swap(i, j int, g *graph.Graph) error {
	n := len(t.vertices)
	if i < 0 || j < 0 || i >= n || j >= n {
		return optimization.NewErrorf(optimization.ErrInvalidIndex,
			"swap (%d, %d) outside tour of length %d", i, j, n).
			WithComponent(component).WithOperation("Swap")
	}
	t.vertices[i], t.vertices[j] = t.vertices[j], t.vertices[i]
	t.Evaluate(g)
	return nil
}

// Clone returns a deep copy; the copy shares no storage with t.
func (t *Tour) Clone() *Tour {
	return &Tour{
		vertices: append([]graph.Vertex(nil), t.vertices...),
		cost:     t.cost,
	}
}

// Equal reports whether both tours hold the same sequence.
func (t *Tour) Equal(other *Tour) bool {
	if other == nil || len(t.vertices) != len(other.vertices) {
		return false
	}
	for i := range t.vertices {
		if t.vertices[i] != other.vertices[i] {
			return false
		}
	}
	return true
}

// IsPermutationOf reports whether t visits every vertex of vs exactly once.
func (t *Tour) IsPermutationOf(vs []graph.Vertex) bool {
	if len(vs) != len(t.vertices) {
		return false
	}
	seen := make(map[graph.Vertex]int, len(vs))
	for _, v := range vs {
		seen[v]++
	}
	for _, v := range t.vertices {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}

// String renders "v1 -> v2 -> ... -> v1 (cost)", or "Empty tour".
func (t *Tour) String() string {
	if len(t.vertices) == 0 {
		return "Empty tour"
	}
	var b strings.Builder
	for _, v := range t.vertices {
		fmt.Fprintf(&b, "%d -> ", v)
	}
	fmt.Fprintf(&b, "%d (%s)", t.vertices[0], t.cost)
	return b.String()
}
