// Command storyloom simulates a small cast in a house and publishes what
// they did as a novel on stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	hackos "github.com/hack-pad/hackpadfs/os"
	"github.com/kittclouds/storyloom/internal/store"
	"github.com/kittclouds/storyloom/pkg/publisher"
	"github.com/kittclouds/storyloom/pkg/scenario"
)

func main() {
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := Run(cfg, os.Stdout, logger); err != nil {
		logger.Error("publish failed", "seed", cfg.Seed, "err", err)
		os.Exit(1)
	}
}

// Run loads the scenario, opens the journal if asked and publishes the book
// to out.
func Run(cfg Config, out io.Writer, logger *slog.Logger) error {
	sc, err := loadScenario(cfg.Scenario)
	if err != nil {
		return err
	}
	logger.Info("scenario loaded",
		"title", sc.Title,
		"places", len(sc.Places),
		"characters", len(sc.Characters),
		"seed", cfg.Seed,
	)

	opts := []publisher.Option{
		publisher.WithRand(rand.New(rand.NewSource(cfg.Seed))),
		publisher.WithLogger(logger),
	}
	if cfg.Journal != "" {
		journal, err := store.NewSQLiteStoreWithDSN(cfg.Journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()
		opts = append(opts, publisher.WithJournal(journal))
	}

	p, err := publisher.New(publisher.Config{
		Title:            cfg.Title,
		Chapters:         cfg.Chapters,
		EventsPerChapter: cfg.EventsPerChapter,
		Friffery:         cfg.Friffery,
		Debug:            cfg.Debug,
		Seed:             cfg.Seed,
	}, sc, opts...)
	if err != nil {
		return err
	}
	return p.Publish(out)
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return scenario.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs := hackos.NewFS()
	fsPath, err := fs.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("scenario path %s: %w", path, err)
	}
	return scenario.Load(fs, fsPath)
}
