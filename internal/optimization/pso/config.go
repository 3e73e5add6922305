package pso

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/copyleftdev/tspswarm/internal/optimization"
)

// Default coefficients. Any other value must be set explicitly in Config.
const (
	DefaultC1 = 0.5
	DefaultC2 = 0.5
)

// Config holds the swarm hyperparameters.
type Config struct {
	// PopulationSize is the number of particles.
	PopulationSize int `json:"population" yaml:"population" validate:"gt=0"`
	// Iterations is the fixed iteration budget of a run.
	Iterations int `json:"iterations" yaml:"iterations" validate:"gte=0"`
	// C1 is the probability of applying a swap toward the personal best.
	C1 float64 `json:"c1" yaml:"c1" validate:"gte=0,lte=1"`
	// C2 is the probability of applying a swap toward the global best.
	C2 float64 `json:"c2" yaml:"c2" validate:"gte=0,lte=1"`
	// Seed of the run. Zero seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed"`
	// Workers bounds the goroutines moving particles. Zero or one moves them
	// sequentially. Results do not depend on it.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 100,
		Iterations:     15,
		C1:             DefaultC1,
		C2:             DefaultC2,
		Workers:        1,
	}
}

var validate = validator.New()

// Validate checks the configuration. A non-positive population is reported
// as ErrInvalidPopulation, anything else as ErrInvalidConfig.
func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return optimization.NewErrorf(optimization.ErrInvalidPopulation,
			"population size must be positive, got %d", c.PopulationSize).
			WithComponent("pso").WithOperation("Config.Validate")
	}
	if err := validate.Struct(c); err != nil {
		return optimization.NewError(optimization.ErrInvalidConfig, formatValidationError(err)).
			WithComponent("pso").WithOperation("Config.Validate")
	}
	return nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
	}
	return strings.Join(msgs, "; ")
}
