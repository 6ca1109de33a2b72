package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Options are shared by every subcommand
type Options struct {
	Config string `short:"c" long:"config" env:"RENDER_CLIENT_CONFIG" default:"configs/render-client/config.yaml" description:"Path to configuration file"`
	Debug  bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var opts Options

func main() {
	if err := run(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "render-client"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"serve", "Run the render host API", "Serve the job lifecycle over HTTP with periodic status refresh", &serveCommand{}},
		{"validate", "Validate a render task", "Check a render task file and print warnings and a time estimate", &validateCommand{}},
		{"submit", "Submit a render job", "Upload a packed scene and register the job with the registry", &submitCommand{}},
		{"status", "Show tracked jobs", "Refresh and print the job history", &statusCommand{}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return fmt.Errorf("failed to register %s command: %w", c.name, err)
		}
	}

	_, err := parser.ParseArgs(args)
	return err
}
