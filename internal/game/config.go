package game

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds game configuration options, read from the environment.
type Config struct {
	// Seed for random number generation. Used for reproducible dungeons and
	// dice. A seed of 0 means a random seed will be generated.
	Seed int64 `env:"GRIDTACTICS_SEED" envDefault:"0"`

	Class string `env:"GRIDTACTICS_CLASS" envDefault:"fighter"`
	Name  string `env:"GRIDTACTICS_NAME" envDefault:"Hero"`

	EncounterRadius int           `env:"GRIDTACTICS_ENCOUNTER_RADIUS" envDefault:"3"`
	TransitionDelay time.Duration `env:"GRIDTACTICS_TRANSITION_DELAY" envDefault:"600ms"`
	Tick            time.Duration `env:"GRIDTACTICS_TICK" envDefault:"50ms"`

	Telemetry        bool   `env:"GRIDTACTICS_TELEMETRY" envDefault:"true"`
	HoneycombAPIKey  string `env:"HONEYCOMB_GRIDTACTICS_API_KEY"`
	HoneycombDataset string `env:"HONEYCOMB_GRIDTACTICS_DATASET" envDefault:"gridtactics"`
}

// LoadConfig reads an optional .env file from the working directory, then
// parses the environment. A missing .env file is not an error.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return ParseConfig()
}

// ParseConfig parses Config from the environment and validates it.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration values the game cannot run with.
func (c Config) Validate() error {
	switch {
	case c.EncounterRadius < 1:
		return fmt.Errorf("encounter radius must be at least 1, got %d", c.EncounterRadius)
	case c.Tick <= 0:
		return fmt.Errorf("tick must be positive, got %s", c.Tick)
	case c.TransitionDelay < 0:
		return fmt.Errorf("transition delay must not be negative, got %s", c.TransitionDelay)
	case c.Name == "":
		return errors.New("name must not be empty")
	}
	return nil
}
