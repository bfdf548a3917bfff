// Package config loads planner configuration with priority
// environment > .env file > YAML file > defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete planner configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Data       DataConfig       `yaml:"data"`
	Search     SearchConfig     `yaml:"search"`
	Classified ClassifiedConfig `yaml:"classified"`
	Windowed   WindowedConfig   `yaml:"windowed"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// DataConfig holds dataset paths. An empty path leaves the surfaces that
// need it unavailable.
type DataConfig struct {
	// Hazard is the RGBA classified avalanche terrain raster.
	Hazard string `yaml:"hazard"`
	// Categories is the single-band category index raster.
	Categories string `yaml:"categories"`
	// Mask is a binary maintained-route raster matching Categories.
	Mask string `yaml:"mask"`
	// Routes is a GeoJSON file or directory of maintained-route polygons.
	Routes string `yaml:"routes"`
	// Mesh is the legacy VTK elevation mesh.
	Mesh string `yaml:"mesh"`
	// Terrain is the elevation raster the mesh was generated from.
	Terrain string `yaml:"terrain"`
}

// SearchConfig bounds every search.
type SearchConfig struct {
	MaxIterations     int           `yaml:"max_iterations"`
	Timeout           time.Duration `yaml:"timeout"`
	HeuristicWeight   float64       `yaml:"heuristic_weight"`
	SimplifyTolerance float64       `yaml:"simplify_tolerance"`
}

// ClassifiedConfig configures the classified grid surface.
type ClassifiedConfig struct {
	// Step is the lattice spacing in metres; zero uses the cell size.
	Step float64 `yaml:"step"`
}

// WindowedConfig configures the windowed raster surface.
type WindowedConfig struct {
	Border           int     `yaml:"border"`
	DiagonalFactor   float64 `yaml:"diagonal_factor"`
	CentralityWeight float64 `yaml:"centrality_weight"`
	FullExtent       bool    `yaml:"full_extent"`
}

// MeshConfig configures the mesh surface.
type MeshConfig struct {
	MaxSlope            float64 `yaml:"max_slope"`
	UphillCoefficient   float64 `yaml:"uphill_coefficient"`
	DownhillCoefficient float64 `yaml:"downhill_coefficient"`
}

// StoreConfig configures the route store.
type StoreConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost", "http://localhost:3000"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   90 * time.Second,
		},
		Search: SearchConfig{
			MaxIterations:   5_000_000,
			Timeout:         60 * time.Second,
			HeuristicWeight: 1,
		},
		Windowed: WindowedConfig{
			Border:         100,
			DiagonalFactor: 1.14,
		},
		Mesh: MeshConfig{
			MaxSlope:            0.6,
			UphillCoefficient:   1,
			DownhillCoefficient: 1,
		},
		Store: StoreConfig{Path: "data/routes"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), the given .env files (".env" when none are given;
// missing files are skipped) and PLANNER_* environment variables.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PLANNER_ADDR":            &cfg.Server.Addr,
		"PLANNER_HAZARD_PATH":     &cfg.Data.Hazard,
		"PLANNER_CATEGORIES_PATH": &cfg.Data.Categories,
		"PLANNER_MASK_PATH":       &cfg.Data.Mask,
		"PLANNER_ROUTES_PATH":     &cfg.Data.Routes,
		"PLANNER_MESH_PATH":       &cfg.Data.Mesh,
		"PLANNER_TERRAIN_PATH":    &cfg.Data.Terrain,
		"PLANNER_STORE_PATH":      &cfg.Store.Path,
		"PLANNER_LOG_LEVEL":       &cfg.Log.Level,
		"PLANNER_LOG_FORMAT":      &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PLANNER_MAX_ITERATIONS": &cfg.Search.MaxIterations,
		"PLANNER_BORDER":         &cfg.Windowed.Border,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = i
		}
	}

	floats := map[string]*float64{
		"PLANNER_HEURISTIC_WEIGHT":     &cfg.Search.HeuristicWeight,
		"PLANNER_SIMPLIFY_TOLERANCE":   &cfg.Search.SimplifyTolerance,
		"PLANNER_CLASSIFIED_STEP":      &cfg.Classified.Step,
		"PLANNER_DIAGONAL_FACTOR":      &cfg.Windowed.DiagonalFactor,
		"PLANNER_CENTRALITY_WEIGHT":    &cfg.Windowed.CentralityWeight,
		"PLANNER_MAX_SLOPE":            &cfg.Mesh.MaxSlope,
		"PLANNER_UPHILL_COEFFICIENT":   &cfg.Mesh.UphillCoefficient,
		"PLANNER_DOWNHILL_COEFFICIENT": &cfg.Mesh.DownhillCoefficient,
	}
	for key, dst := range floats {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"PLANNER_FULL_EXTENT":     &cfg.Windowed.FullExtent,
		"PLANNER_STORE_IN_MEMORY": &cfg.Store.InMemory,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = b
		}
	}

	if v, ok := os.LookupEnv("PLANNER_SEARCH_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: PLANNER_SEARCH_TIMEOUT: %w", err)
		}
		cfg.Search.Timeout = d
	}
	if v, ok := os.LookupEnv("PLANNER_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	case c.Search.MaxIterations < 0:
		return fmt.Errorf("%w: search.max_iterations must be >= 0", ErrInvalid)
	case c.Search.Timeout < 0:
		return fmt.Errorf("%w: search.timeout must be >= 0", ErrInvalid)
	case c.Search.HeuristicWeight < 0:
		return fmt.Errorf("%w: search.heuristic_weight must be >= 0", ErrInvalid)
	case c.Search.SimplifyTolerance < 0:
		return fmt.Errorf("%w: search.simplify_tolerance must be >= 0", ErrInvalid)
	case c.Classified.Step < 0:
		return fmt.Errorf("%w: classified.step must be >= 0", ErrInvalid)
	case c.Windowed.Border < 0:
		return fmt.Errorf("%w: windowed.border must be >= 0", ErrInvalid)
	case c.Windowed.DiagonalFactor <= 0:
		return fmt.Errorf("%w: windowed.diagonal_factor must be > 0", ErrInvalid)
	case c.Windowed.CentralityWeight < 0:
		return fmt.Errorf("%w: windowed.centrality_weight must be >= 0", ErrInvalid)
	case c.Mesh.MaxSlope <= 0:
		return fmt.Errorf("%w: mesh.max_slope must be > 0", ErrInvalid)
	case c.Mesh.UphillCoefficient < 0 || c.Mesh.DownhillCoefficient < 0:
		return fmt.Errorf("%w: mesh coefficients must be >= 0", ErrInvalid)
	case !c.Store.InMemory && c.Store.Path == "":
		return fmt.Errorf("%w: store.path is empty", ErrInvalid)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("%w: log.format %q, want text or json", ErrInvalid, c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("%w: log.level %q", ErrInvalid, s)
	}
	return l, nil
}

// NewLogger builds the configured logger writing to w.
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
