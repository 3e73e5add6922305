package server

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/copyleftdev/tspswarm/internal/errors"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/pso"
	"github.com/copyleftdev/tspswarm/internal/optimization/sweep"
	"github.com/copyleftdev/tspswarm/internal/optimization/tsp"
)

// EdgeInput is one weighted edge of an explicit graph.
type EdgeInput struct {
	From   int     `json:"from" validate:"gte=0"`
	To     int     `json:"to" validate:"gte=0"`
	Length float64 `json:"length" validate:"gte=0"`
}

// ProblemInput describes the instance to solve: either planar cities, which
// are connected into a complete Euclidean graph, or an explicit edge list.
type ProblemInput struct {
	Cities []tsp.Coordinates `json:"cities,omitempty" validate:"required_without=Edges,excluded_with=Edges"`
	Edges  []EdgeInput       `json:"edges,omitempty" validate:"required_without=Cities,dive"`
}

// SolveRequest starts a solve job. Omitted parameters take the server
// defaults.
type SolveRequest struct {
	ProblemInput
	Population *int     `json:"population,omitempty"`
	Iterations *int     `json:"iterations,omitempty"`
	C1         *float64 `json:"c1,omitempty"`
	C2         *float64 `json:"c2,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`
	Workers    *int     `json:"workers,omitempty"`
}

// SweepRequest runs a hyperparameter grid synchronously.
type SweepRequest struct {
	ProblemInput
	Grid sweep.Grid `json:"grid"`
}

// JobRequest addresses an existing job.
type JobRequest struct {
	JobID string `json:"job_id" validate:"required,uuid"`
}

var validate = validator.New()

func validateRequest(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.New(errors.ErrBadRequest, err.Error()).WithOperation("validate")
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
		}
		return errors.New(errors.ErrBadRequest, strings.Join(msgs, "; ")).WithOperation("validate")
	}
	return nil
}

// Graph builds the graph of the instance. Engine-level checks (size,
// completeness) are left to the engine.
func (p ProblemInput) Graph(maxCities int) (*graph.Graph, []tsp.City, error) {
	if len(p.Cities) > 0 {
		if len(p.Cities) > maxCities {
			return nil, nil, errors.Errorf(errors.ErrBadRequest,
				"%d cities exceed the limit of %d", len(p.Cities), maxCities)
		}
		cities := tsp.NewCities(p.Cities)
		g, err := tsp.CompleteGraph(cities)
		if err != nil {
			return nil, nil, err
		}
		return g, cities, nil
	}

	g := graph.New()
	for _, e := range p.Edges {
		g.AddVertex(graph.Vertex(e.From))
		g.AddVertex(graph.Vertex(e.To))
	}
	if g.Order() > maxCities {
		return nil, nil, errors.Errorf(errors.ErrBadRequest,
			"%d vertices exceed the limit of %d", g.Order(), maxCities)
	}
	for _, e := range p.Edges {
		if err := g.AddEdge(graph.Vertex(e.From), graph.Vertex(e.To), graph.Length(e.Length)); err != nil {
			return nil, nil, err
		}
	}
	return g, nil, nil
}

// EngineConfig overlays the request on defaults.
func (r SolveRequest) EngineConfig(defaults pso.Config) pso.Config {
	cfg := defaults
	if r.Population != nil {
		cfg.PopulationSize = *r.Population
	}
	if r.Iterations != nil {
		cfg.Iterations = *r.Iterations
	}
	if r.C1 != nil {
		cfg.C1 = *r.C1
	}
	if r.C2 != nil {
		cfg.C2 = *r.C2
	}
	if r.Seed != nil {
		cfg.Seed = *r.Seed
	}
	if r.Workers != nil {
		cfg.Workers = *r.Workers
	}
	return cfg
}
