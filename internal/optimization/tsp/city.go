// Package tsp turns planar city sets into the complete graphs the swarm
// searches, and turns found tours back into something a renderer can draw.
package tsp

import (
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

const component = "tsp"

// Coordinates is a point in the plane.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// City is a vertex placed at a position.
type City struct {
	Vertex   graph.Vertex `json:"vertex"`
	Position Coordinates  `json:"position"`
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Coordinates) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

// NewCities numbers points 0..n-1 in input order.
func NewCities(points []Coordinates) []City {
	cities := make([]City, len(points))
	for i, p := range points {
		cities[i] = City{Vertex: graph.Vertex(i), Position: p}
	}
	return cities
}

// CompleteGraph registers every city and connects each unordered pair with
// its Euclidean distance. Two cities sharing a vertex id are rejected.
func CompleteGraph(cities []City) (*graph.Graph, error) {
	g := graph.New()
	for _, c := range cities {
		if g.HasVertex(c.Vertex) {
			return nil, optimization.NewErrorf(optimization.ErrInvalidGraph,
				"duplicate city %d", c.Vertex).
				WithComponent(component).WithOperation("CompleteGraph")
		}
		g.AddVertex(c.Vertex)
	}

	for i := range cities {
		for j := i + 1; j < len(cities); j++ {
			d := Distance(cities[i].Position, cities[j].Position)
			if err := g.AddEdge(cities[i].Vertex, cities[j].Vertex, graph.Length(d)); err != nil {
				return nil, optimization.WrapErrorf(err, "tsp: connect %d and %d",
					cities[i].Vertex, cities[j].Vertex)
			}
		}
	}
	return g, nil
}

// Render formats t as "v1 -> v2 -> ... -> v1 (cost)".
func Render(t *tour.Tour) string {
	return t.String()
}
