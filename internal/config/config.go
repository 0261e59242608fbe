// Package config loads server settings from defaults, an optional TOML file
// and environment variables, in that order.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/kolam-tools-mcp/internal/render"
)

// Environment variables.
const (
	EnvConfigFile    = "KOLAM_MCP_CONFIG"
	EnvLogLevel      = "KOLAM_MCP_LOG_LEVEL"
	EnvDatasetPath   = "KOLAM_DATASET_PATH"
	EnvDBPath        = "KOLAM_DB_PATH"
	EnvCanvasSize    = "KOLAM_CANVAS_SIZE"
	EnvMaxImageDim   = "KOLAM_MAX_IMAGE_DIM"
	EnvSeedTemplates = "KOLAM_SEED_TEMPLATES"
)

// DefaultMaxImageDim is the long-side limit images are downscaled to
// before digitizing.
const DefaultMaxImageDim = 1000

const minImageDim = 64

// disabledDB turns the pattern library off when used as DBPath.
const disabledDB = "none"

// Config holds the server settings.
type Config struct {
	LogLevel    string `toml:"log_level"`
	DatasetPath string `toml:"dataset_path"`
	// DBPath is the SQLite library file. Empty disables the library.
	DBPath        string `toml:"db_path"`
	CanvasSize    int    `toml:"canvas_size"`
	MaxImageDim   int    `toml:"max_image_dim"`
	SeedTemplates bool   `toml:"seed_templates"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		DBPath:        defaultDBPath(),
		CanvasSize:    render.DefaultSize,
		MaxImageDim:   DefaultMaxImageDim,
		SeedTemplates: true,
	}
}

// Load builds the configuration. File and value problems are logged and
// the affected settings keep their defaults.
func Load() *Config {
	cfg := Default()
	if path := os.Getenv(EnvConfigFile); path != "" {
		cfg.loadFile(path)
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// LibraryEnabled reports whether a pattern library should be opened.
func (c *Config) LibraryEnabled() bool {
	return c.DBPath != ""
}

func (c *Config) loadFile(path string) {
	next := *c
	md, err := toml.DecodeFile(path, &next)
	if err != nil {
		log.Printf("config: ignoring %s: %v", path, err)
		return
	}
	for _, key := range md.Undecoded() {
		log.Printf("config: unknown key %q in %s", key.String(), path)
	}
	*c = next
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.DatasetPath = getEnv(EnvDatasetPath, c.DatasetPath)
	c.DBPath = getEnv(EnvDBPath, c.DBPath)
	c.CanvasSize = getEnvAsInt(EnvCanvasSize, c.CanvasSize)
	c.MaxImageDim = getEnvAsInt(EnvMaxImageDim, c.MaxImageDim)
	c.SeedTemplates = getEnvAsBool(EnvSeedTemplates, c.SeedTemplates)
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if strings.EqualFold(c.DBPath, disabledDB) {
		c.DBPath = ""
	}
	if c.CanvasSize < render.MinSize || c.CanvasSize > render.MaxSize {
		log.Printf("config: canvas size %d out of range %d-%d, using %d",
			c.CanvasSize, render.MinSize, render.MaxSize, render.DefaultSize)
		c.CanvasSize = render.DefaultSize
	}
	if c.MaxImageDim < minImageDim {
		log.Printf("config: max image dimension %d below %d, using %d", c.MaxImageDim, minImageDim, DefaultMaxImageDim)
		c.MaxImageDim = DefaultMaxImageDim
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kolam-mcp", "library.db")
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("config: %s=%q is not an integer", key, value)
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("config: %s=%q is not a boolean", key, value)
	}
	return defaultVal
}
