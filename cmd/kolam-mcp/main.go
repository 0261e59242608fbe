package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/kolam-tools-mcp/internal/config"
	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/digitize"
	"github.com/ironsheep/kolam-tools-mcp/internal/generator"
	"github.com/ironsheep/kolam-tools-mcp/internal/library"
	"github.com/ironsheep/kolam-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("kolam-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("kolam-tools-mcp - MCP server for kolam generation and digitization")
			fmt.Println()
			fmt.Println("Usage: kolam-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=<file>         TOML config file\n", config.EnvConfigFile)
			fmt.Printf("  %s=debug       Enable debug logging\n", config.EnvLogLevel)
			fmt.Printf("  %s=<file>       Curve-point dataset (JSON)\n", config.EnvDatasetPath)
			fmt.Printf("  %s=<file|none>       Pattern library database\n", config.EnvDBPath)
			fmt.Printf("  %s=<px>          Default canvas size\n", config.EnvCanvasSize)
			fmt.Printf("  %s=<px>        Downscale digitizer input above this size\n", config.EnvMaxImageDim)
			fmt.Printf("  %s=true|false  Seed built-in templates into an empty library\n", config.EnvSeedTemplates)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load()
	if cfg.Debug() {
		log.Printf("Kolam MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	data := dataset.Load(cfg.DatasetPath)
	if cfg.Debug() {
		log.Printf("dataset: %d themes from %s", len(data.Themes()), data.Source())
	}

	gen := generator.New(data, generator.Options{CanvasSize: cfg.CanvasSize, Debug: cfg.Debug()})
	dig := digitize.New(gen, digitize.Options{MaxImageDim: cfg.MaxImageDim, Debug: cfg.Debug()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *library.Store
	if cfg.LibraryEnabled() {
		var err error
		store, err = library.Open(cfg.DBPath)
		if err != nil {
			log.Printf("Pattern library unavailable, continuing without it: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	srv := server.New(server.Options{
		Generator: gen,
		Digitizer: dig,
		Store:     store,
		Debug:     cfg.Debug(),
	})

	if store != nil && cfg.SeedTemplates {
		if _, err := srv.SeedTemplates(ctx); err != nil {
			log.Printf("Failed to seed templates: %v", err)
		}
	}

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
}
