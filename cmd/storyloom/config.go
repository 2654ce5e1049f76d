package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds storyloom command configuration.
type Config struct {
	Title            string `env:"STORYLOOM_TITLE"`
	Chapters         int    `env:"STORYLOOM_CHAPTERS" envDefault:"18"`
	EventsPerChapter int    `env:"STORYLOOM_EVENTS_PER_CHAPTER" envDefault:"810"`
	Friffery         bool   `env:"STORYLOOM_FRIFFERY" envDefault:"false"`
	Debug            bool   `env:"STORYLOOM_DEBUG" envDefault:"false"`
	// Seed 0 draws a random seed.
	Seed int64 `env:"STORYLOOM_SEED" envDefault:"0"`
	// Scenario is a YAML file path. Empty uses the built-in scenario.
	Scenario string `env:"STORYLOOM_SCENARIO"`
	// Journal is a SQLite path (or ":memory:"). Empty disables the journal.
	Journal string `env:"STORYLOOM_JOURNAL"`
}

// ParseConfig loads environment defaults into Config and then parses flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Title, "title", cfg.Title, "Book title (defaults to the scenario title)")
	fs.IntVar(&cfg.Chapters, "chapters", cfg.Chapters, "Number of chapters")
	fs.IntVar(&cfg.EventsPerChapter, "events-per-chapter", cfg.EventsPerChapter, "Events simulated per chapter")
	fs.BoolVar(&cfg.Friffery, "friffery", cfg.Friffery, "Add weather and paragraph openers")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Dump raw events and witness statistics")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed; 0 picks one")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "Scenario YAML file")
	fs.StringVar(&cfg.Journal, "journal", cfg.Journal, "SQLite event journal path")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Chapters < 1 {
		return Config{}, fmt.Errorf("chapters must be positive, got %d", cfg.Chapters)
	}
	if cfg.EventsPerChapter < 1 {
		return Config{}, fmt.Errorf("events-per-chapter must be positive, got %d", cfg.EventsPerChapter)
	}
	if cfg.Seed == 0 {
		seed, err := randomSeed()
		if err != nil {
			return Config{}, err
		}
		cfg.Seed = seed
	}
	return cfg, nil
}

func randomSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("draw seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}
