package tsp

import (
	"math"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

// Canvas defaults for Project.
const (
	CanvasSize   = 500.0
	CanvasMargin = 5.0
)

// Plot is a renderer-agnostic description of a tour drawn over its cities.
type Plot struct {
	// Cities holds every city position in input order.
	Cities []Coordinates `json:"cities"`
	// Path is the tour as a closed polyline: the first point is repeated at
	// the end.
	Path []Coordinates `json:"path"`
	// Min and Max bound all city positions.
	Min Coordinates `json:"min"`
	Max Coordinates `json:"max"`
	// Extent is the side of the square that holds the plot: the largest
	// coordinate of any city plus CanvasMargin.
	Extent float64 `json:"extent"`
	// Cost is the tour cost, or -1 when undefined.
	Cost float64 `json:"cost"`
}

// PlotData lays t out over cities. Every vertex of t must belong to a city.
func PlotData(cities []City, t *tour.Tour) (*Plot, error) {
	if len(cities) == 0 || t == nil || t.Len() == 0 {
		return nil, optimization.NewError(optimization.ErrInvalidIndex, "nothing to plot").
			WithComponent(component).WithOperation("PlotData")
	}

	byVertex := make(map[graph.Vertex]Coordinates, len(cities))
	p := &Plot{
		Cities: make([]Coordinates, len(cities)),
		Min:    Coordinates{X: math.Inf(1), Y: math.Inf(1)},
		Max:    Coordinates{X: math.Inf(-1), Y: math.Inf(-1)},
		Cost:   t.Cost().Raw(),
	}
	further := math.Inf(-1)
	for i, c := range cities {
		pos := c.Position
		byVertex[c.Vertex] = pos
		p.Cities[i] = pos
		p.Min.X = math.Min(p.Min.X, pos.X)
		p.Min.Y = math.Min(p.Min.Y, pos.Y)
		p.Max.X = math.Max(p.Max.X, pos.X)
		p.Max.Y = math.Max(p.Max.Y, pos.Y)
		further = math.Max(further, math.Max(pos.X, pos.Y))
	}
	p.Extent = further + CanvasMargin

	p.Path = make([]Coordinates, 0, t.Len()+1)
	for _, v := range t.Vertices() {
		pos, ok := byVertex[v]
		if !ok {
			return nil, optimization.NewErrorf(optimization.ErrInvalidIndex,
				"tour visits vertex %d which has no city", v).
				WithComponent(component).WithOperation("PlotData")
		}
		p.Path = append(p.Path, pos)
	}
	p.Path = append(p.Path, p.Path[0])
	return p, nil
}

// Project maps c onto a size x size canvas whose origin is the top-left
// corner, flipping the y axis and shifting by half the margin.
func (p *Plot) Project(c Coordinates, size float64) (x, y float64) {
	scale := size / p.Extent
	x = (c.X + CanvasMargin/2) * scale
	y = (p.Extent - CanvasMargin/2 - c.Y) * scale
	return x, y
}
