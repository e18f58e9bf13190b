package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/session"
)

// Config holds the application's configuration values.
type Config struct {
	Host           string                   // Host interface for the HTTP server
	Port           int                      // Port for the HTTP server
	GridRows       int                      // Rows of a new session grid
	GridCols       int                      // Columns of a new session grid
	MaxGridCells   int                      // Largest board a session accepts, 0 for no cap
	StepDelay      time.Duration            // Pause after each frontier expansion
	PathDelay      time.Duration            // Pause after each path cell
	SpeedRamp      time.Duration            // Time to ease into a new delay
	FrontierPolicy gridastar.FrontierPolicy // How improved cells are queued
	LogLevel       log.Level                // Minimum level for logrus
	StaticDir      string                   // Directory holding index.html, optional
}

// Load reads a .env file if one is present and builds the configuration from
// the environment, falling back to defaults for unset variables.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.WithError(err).Debug("no .env file loaded")
	}

	var (
		cfg Config
		err error
	)
	cfg.Host = getEnvWithDefault("HOST", "")
	if cfg.Port, err = getEnvAsInt("PORT", 8080); err != nil {
		return Config{}, err
	}
	if cfg.GridRows, err = getEnvAsInt("GRID_ROWS", gridastar.DefaultRows); err != nil {
		return Config{}, err
	}
	if cfg.GridCols, err = getEnvAsInt("GRID_COLS", gridastar.DefaultCols); err != nil {
		return Config{}, err
	}
	if cfg.MaxGridCells, err = getEnvAsInt("MAX_GRID_CELLS", session.DefaultMaxCells); err != nil {
		return Config{}, err
	}
	if cfg.StepDelay, err = getEnvAsDuration("STEP_DELAY", 50*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.PathDelay, err = getEnvAsDuration("PATH_DELAY", 20*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SpeedRamp, err = getEnvAsDuration("SPEED_RAMP", 250*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.FrontierPolicy, err = gridastar.ParseFrontierPolicy(getEnvWithDefault("FRONTIER_POLICY", "lazy")); err != nil {
		return Config{}, fmt.Errorf("FRONTIER_POLICY: %w", err)
	}
	if cfg.LogLevel, err = log.ParseLevel(getEnvWithDefault("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.StaticDir = getEnvWithDefault("STATIC_DIR", "")

	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT %d out of range", cfg.Port)
	}
	if cfg.GridRows <= 0 || cfg.GridCols <= 0 {
		return Config{}, fmt.Errorf("grid dimensions %dx%d must be positive", cfg.GridRows, cfg.GridCols)
	}
	if cfg.MaxGridCells < 0 {
		return Config{}, fmt.Errorf("MAX_GRID_CELLS %d must not be negative", cfg.MaxGridCells)
	}
	if cfg.MaxGridCells > 0 && cfg.GridRows > cfg.MaxGridCells/cfg.GridCols {
		return Config{}, fmt.Errorf("grid %dx%d exceeds MAX_GRID_CELLS %d", cfg.GridRows, cfg.GridCols, cfg.MaxGridCells)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return value, nil
}

// getEnvAsDuration retrieves an environment variable as a duration such as "50ms".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a duration: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("environment variable %s must not be negative", key)
	}
	return value, nil
}
