package pso

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

// pointsGraph builds the complete Euclidean graph over pts; vertex i is pts[i].
func pointsGraph(t testing.TB, pts [][2]float64) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i := range pts {
		g.AddVertex(graph.Vertex(i))
	}
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			d := math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])
			require.NoError(t, g.AddEdge(graph.Vertex(i), graph.Vertex(j), graph.Length(d)))
		}
	}
	return g
}

// unitSquare: 0=(0,0) 1=(0,1) 2=(1,1) 3=(1,0). The optimal tour costs 4.
func unitSquare(t testing.TB) *graph.Graph {
	return pointsGraph(t, [][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}})
}

// randomGraph places n cities uniformly in a 100x100 box.
func randomGraph(t testing.TB, n int, seed int64) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	pts := make([][2]float64, n)
	for i := range pts {
		pts[i] = [2]float64{rng.Float64() * 100, rng.Float64() * 100}
	}
	return pointsGraph(t, pts)
}

func makeTour(g *graph.Graph, ids ...int) *tour.Tour {
	vs := make([]graph.Vertex, len(ids))
	for i, id := range ids {
		vs[i] = graph.Vertex(id)
	}
	return tour.FromVertices(vs, g)
}

func ids(vs []graph.Vertex) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = int(v)
	}
	return out
}
