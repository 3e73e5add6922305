// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"

	"github.com/copyleftdev/tspswarm/internal/logging"
	"github.com/copyleftdev/tspswarm/internal/optimization/pso"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging logging.Config `envPrefix:"LOG_"`
	// PSO holds the defaults applied to solve requests that leave a
	// parameter out.
	PSO struct {
		Population int     `env:"POPULATION" envDefault:"100" validate:"gt=0"`
		Iterations int     `env:"ITERATIONS" envDefault:"15" validate:"gte=0"`
		C1         float64 `env:"C1" envDefault:"0.5" validate:"gte=0,lte=1"`
		C2         float64 `env:"C2" envDefault:"0.5" validate:"gte=0,lte=1"`
		Workers    int     `env:"WORKERS" envDefault:"1" validate:"gte=0"`
		Seed       int64   `env:"SEED" envDefault:"0"`
		// MaxCities, MaxPopulation and MaxIterations bound a single request.
		MaxCities     int `env:"MAX_CITIES" envDefault:"2000" validate:"gte=2"`
		MaxPopulation int `env:"MAX_POPULATION" envDefault:"10000" validate:"gtefield=Population"`
		MaxIterations int `env:"MAX_ITERATIONS" envDefault:"1000000" validate:"gtefield=Iterations"`
	} `envPrefix:"PSO_"`
	Server struct {
		// MaxJobs bounds the number of jobs running at once.
		MaxJobs int `env:"MAX_JOBS" envDefault:"8" validate:"gt=0"`
		// JobTTL is how long finished jobs stay queryable.
		JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`
	} `envPrefix:"SERVER_"`
}

var validate = validator.New()

// Load parses the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that the environment parser cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", fe.Namespace(), fe.Value(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// EngineConfig returns the swarm defaults.
func (c *Config) EngineConfig() pso.Config {
	return pso.Config{
		PopulationSize: c.PSO.Population,
		Iterations:     c.PSO.Iterations,
		C1:             c.PSO.C1,
		C2:             c.PSO.C2,
		Seed:           c.PSO.Seed,
		Workers:        c.PSO.Workers,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
