package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/inamate/geometry-go/internal/engine"
)

type Config struct {
	Port           int     `envconfig:"PORT" default:"8080"`
	JWTSecret      string  `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	MaxPasses      int     `envconfig:"SOLVER_MAX_PASSES" default:"3"`
	BisectEpsilon  float64 `envconfig:"BISECT_EPSILON" default:"48"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPasses < 1 {
		return nil, fmt.Errorf("SOLVER_MAX_PASSES must be at least 1, got %d", cfg.MaxPasses)
	}
	if cfg.BisectEpsilon <= 0 {
		return nil, fmt.Errorf("BISECT_EPSILON must be positive, got %v", cfg.BisectEpsilon)
	}
	return &cfg, nil
}

func (c *Config) SolverOptions() engine.Options {
	return engine.Options{MaxPasses: c.MaxPasses, BisectEpsilon: c.BisectEpsilon}
}

// Origins splits AllowedOrigins on commas, dropping blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns strips the scheme from each origin, the form the websocket
// accept check expects.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
