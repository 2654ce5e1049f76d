package main

import (
	"bytes"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("storyloom", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.Chapters)
	assert.Equal(t, 810, cfg.EventsPerChapter)
	assert.False(t, cfg.Friffery)
	assert.NotZero(t, cfg.Seed, "zero seed should be replaced")
	assert.Empty(t, cfg.Scenario)
}

func TestParseConfigEnvThenFlags(t *testing.T) {
	t.Setenv("STORYLOOM_CHAPTERS", "3")
	t.Setenv("STORYLOOM_SEED", "7")
	t.Setenv("STORYLOOM_FRIFFERY", "true")

	cfg, err := ParseConfig(newFlagSet(), []string{"-chapters", "5", "-title", "Night"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Chapters)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.Friffery)
	assert.Equal(t, "Night", cfg.Title)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig(nil, nil)
	assert.Error(t, err)

	_, err = ParseConfig(newFlagSet(), []string{"-chapters", "0"})
	assert.Error(t, err)

	t.Setenv("STORYLOOM_EVENTS_PER_CHAPTER", "lots")
	_, err = ParseConfig(newFlagSet(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse env:"))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Two Rooms
places:
  - name: cell
    exits: [yard]
  - name: yard
    noun: yard
    exits: [cell]
characters:
  - name: Ada
    gender: feminine
    start: cell
items:
  - name: brass key
    in: yard
`), 0644))

	cfg := Config{
		Chapters:         1,
		EventsPerChapter: 30,
		Seed:             11,
		Scenario:         path,
		Journal:          filepath.Join(dir, "journal.db"),
	}
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Run(cfg, &out, logger))

	assert.True(t, strings.HasPrefix(out.String(), "Two Rooms\n=========\n\nChapter 1.\n"), out.String())
	assert.Contains(t, out.String(), "Ada was in the cell.")
	_, err := os.Stat(cfg.Journal)
	assert.NoError(t, err)
}

func TestRunMissingScenario(t *testing.T) {
	cfg := Config{Chapters: 1, EventsPerChapter: 10, Seed: 1, Scenario: filepath.Join(t.TempDir(), "nope.yaml")}
	err := Run(cfg, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
