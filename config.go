package main

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults reproduce the reference 2x2 example: eigenvalues about 4.537 and
// 0.349, |b> = rz(1.276359)·rx(1.276359)|0>.
const (
	defaultMatrix       = "4.30213466-6.0159349e-08i,0.23531802+0.934386156i;0.23531882-0.934388383i,0.58386534+6.01593489e-08i"
	defaultTime         = "0.358166*pi"
	defaultPrep         = "rx(1.276359),rz(1.276359)"
	defaultRegisterSize = 4
	defaultShots        = 5000
	defaultLogFile      = "hhl.log"
)

// Config holds application configuration
type Config struct {
	Matrix       string
	Time         string
	C            string // empty selects 2π/(t·2^n)
	RegisterSize int
	Prep         string
	Shots        int
	Seed         uint64
	Seeded       bool
	Workers      int
	Headless     bool
	LogLevel     string
	LogFile      string
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Matrix:   getEnv("HHL_MATRIX", defaultMatrix),
		Time:     getEnv("HHL_TIME", defaultTime),
		C:        getEnv("HHL_C", ""),
		Prep:     getEnv("HHL_PREP", defaultPrep),
		LogLevel: getEnv("HHL_LOG_LEVEL", "info"),
		LogFile:  getEnv("HHL_LOG_FILE", defaultLogFile),
	}

	var err error
	if cfg.RegisterSize, err = getEnvAsInt("HHL_REGISTER_SIZE", defaultRegisterSize); err != nil {
		return nil, err
	}
	if cfg.Shots, err = getEnvAsInt("HHL_SHOTS", defaultShots); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getEnvAsInt("HHL_WORKERS", DefaultWorkers); err != nil {
		return nil, err
	}
	if cfg.Headless, err = getEnvAsBool("HHL_HEADLESS", false); err != nil {
		return nil, err
	}
	if v := os.Getenv("HHL_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("HHL_SEED %q: %w", v, ErrInvalidExpression)
		}
		cfg.Seed, cfg.Seeded = seed, true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value parses and is in range.
func (c *Config) Validate() error {
	if c.Shots < 1 {
		return fmt.Errorf("HHL_SHOTS %d: %w", c.Shots, ErrInvalidParameter)
	}
	if c.Workers < 1 {
		return fmt.Errorf("HHL_WORKERS %d: %w", c.Workers, ErrInvalidParameter)
	}
	_, err := c.Params()
	return err
}

// Params converts the textual configuration into algorithm parameters.
func (c *Config) Params() (Params, error) {
	var p Params
	if c.RegisterSize < 1 || c.RegisterSize > MaxRegisterSize {
		return p, fmt.Errorf("HHL_REGISTER_SIZE %d outside [1, %d]: %w", c.RegisterSize, MaxRegisterSize, ErrInvalidParameter)
	}
	p.RegisterSize = c.RegisterSize

	a, err := ParseMatrix(c.Matrix)
	if err != nil {
		return p, fmt.Errorf("HHL_MATRIX: %w", err)
	}
	p.A = a

	if p.T, err = ParseExpression(c.Time); err != nil {
		return p, fmt.Errorf("HHL_TIME: %w", err)
	}
	if p.T == 0 {
		return p, fmt.Errorf("HHL_TIME must be non-zero: %w", ErrInvalidParameter)
	}

	if c.C == "" {
		p.C = DefaultNormalization(p.T, p.RegisterSize)
	} else if p.C, err = ParseExpression(c.C); err != nil {
		return p, fmt.Errorf("HHL_C: %w", err)
	}

	if p.InputPrep, err = ParsePrep(c.Prep); err != nil {
		return p, fmt.Errorf("HHL_PREP: %w", err)
	}
	return p, nil
}

// DefaultNormalization is 2π/(t·2^n), the smallest eigenvalue the register
// can represent.
func DefaultNormalization(t float64, registerSize int) float64 {
	return 2 * math.Pi / (t * float64(int(1)<<registerSize))
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, value, ErrInvalidExpression)
	}
	return intVal, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s %q: %w", key, value, ErrInvalidExpression)
	}
	return boolVal, nil
}
