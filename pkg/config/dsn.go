package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/TechXTT/tormprobe/pkg/internal/schema"
)

// Config holds the resolved datasource and probe settings.
type Config struct {
	DSN        string
	Provider   string
	Driver     string
	SchemaPath string

	Iterations int
	Window     int
}

const (
	DefaultSchemaPath = "prisma/schema.prisma"
	DefaultIterations = 10000
	DefaultWindow     = 1000
)

// Load reads the datasource from a Prisma schema. A .env file in the
// working directory is loaded first so env("...") urls can resolve from it.
func Load(schemaFile string) (*Config, error) {
	data, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, err
	}
	ds, err := schema.ParseDatasource(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schemaFile, err)
	}
	// a missing .env is fine
	_ = godotenv.Load()

	dsn := ds.URL
	if ds.URLEnv != "" {
		dsn = os.Getenv(ds.URLEnv)
		if dsn == "" {
			return nil, fmt.Errorf("environment variable %s is not set", ds.URLEnv)
		}
	}
	driver, err := DriverFor(ds.Provider)
	if err != nil {
		return nil, err
	}

	return &Config{
		DSN:        dsn,
		Provider:   ds.Provider,
		Driver:     driver,
		SchemaPath: schemaFile,
		Iterations: DefaultIterations,
		Window:     DefaultWindow,
	}, nil
}

// DriverFor maps a schema provider to a database/sql driver name.
func DriverFor(provider string) (string, error) {
	switch provider {
	case "postgresql", "postgres", "":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported provider %q", provider)
	}
}

// Validate checks the probe settings.
func (c *Config) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must be >= 0, got %d", c.Iterations)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be > 0, got %d", c.Window)
	}
	switch c.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	return nil
}
