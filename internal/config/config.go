// Package config resolves simulation parameters from built-in defaults,
// environment variables, and an optional INI configuration file. Explicit
// command-line flags are applied last by the caller, giving the precedence
// flag > config file > environment > default.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"gopkg.in/ini.v1"
)

// Simulation holds the sampler inputs. The defaults reproduce the reference
// hydrogen run: alpha converges toward 1 and the energy toward -1/2.
type Simulation struct {
	NumWalkers         int     `env:"VMC_NUMWALKERS" envDefault:"4000" ini:"numwalkers"`
	NumSteps           int     `env:"VMC_NUMSTEPS" envDefault:"120" ini:"numsteps"`
	EquilibrationSteps int     `env:"VMC_EQUILIBRATION_STEPS" envDefault:"3000" ini:"equilibration_steps"`
	Alpha              float64 `env:"VMC_ALPHA" envDefault:"0.8" ini:"alpha"`
	LearningRate       float64 `env:"VMC_LEARNING_RATE" envDefault:"0.01" ini:"learning_rate"`
	StepSize           float64 `env:"VMC_STEP_SIZE" envDefault:"0.1" ini:"step_size"`
	Seed               uint64  `env:"VMC_SEED" envDefault:"0" ini:"seed"`
}

// Output controls where results land.
type Output struct {
	Dir      string `env:"VMC_OUTPUT_DIR" envDefault:"results" ini:"output_dir"`
	Database string `env:"VMC_DB" envDefault:"" ini:"database"`
	Plots    bool   `env:"VMC_PLOTS" envDefault:"true" ini:"plots"`
}

// Config is the resolved process configuration.
type Config struct {
	Simulation Simulation
	Output     Output
	Logging    struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Monitor struct {
		// Addr enables the HTTP run monitor when non-empty, e.g. ":9090".
		Addr string `env:"VMC_MONITOR_ADDR" envDefault:""`
	}
}

// Load builds the configuration from environment variables (falling back to
// built-in defaults), then overlays values from the INI file at path if one
// is given. A path that cannot be read is an error; keys absent from the
// file keep their earlier values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if path == "" {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config file %q: %w", path, err)
	}
	if sec, err := file.GetSection("Simulation"); err == nil {
		if err := sec.MapTo(&cfg.Simulation); err != nil {
			return nil, fmt.Errorf("config file %q, section Simulation: %w", path, err)
		}
	}
	if sec, err := file.GetSection("Output"); err == nil {
		if err := sec.MapTo(&cfg.Output); err != nil {
			return nil, fmt.Errorf("config file %q, section Output: %w", path, err)
		}
	}

	return cfg, nil
}
