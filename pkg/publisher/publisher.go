// Package publisher runs the world simulation chapter by chapter and hands
// each chapter's event stream to an Editor to be written out as prose.
package publisher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kittclouds/storyloom/internal/store"
	"github.com/kittclouds/storyloom/pkg/diction"
	"github.com/kittclouds/storyloom/pkg/editor"
	"github.com/kittclouds/storyloom/pkg/events"
	"github.com/kittclouds/storyloom/pkg/scenario"
	"github.com/kittclouds/storyloom/pkg/world"
)

// ErrStuck is returned when a full round passes without any character
// being able to act.
var ErrStuck = errors.New("publisher: no character can act")

// Config controls the shape of the book.
type Config struct {
	Title            string
	Chapters         int
	EventsPerChapter int
	Friffery         bool
	Debug            bool
	// Seed is recorded in the journal and seeds the weather.
	Seed int64
}

// Publisher writes a whole book.
type Publisher struct {
	cfg     Config
	setting *scenario.Setting
	rng     *rand.Rand
	logger  *slog.Logger
	journal store.Storer
	sky     editor.Sky
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRand sets the random source shared by the simulation and the Editor.
func WithRand(rng *rand.Rand) Option {
	return func(p *Publisher) { p.rng = rng }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithJournal appends every chapter's raw events to s.
func WithJournal(s store.Storer) Option {
	return func(p *Publisher) { p.journal = s }
}

// WithSky replaces the weather used by the friffery pass.
func WithSky(sky editor.Sky) Option {
	return func(p *Publisher) { p.sky = sky }
}

// New creates a Publisher for the given scenario. The world is built once
// and carries over from chapter to chapter.
func New(cfg Config, sc *scenario.Scenario, opts ...Option) (*Publisher, error) {
	if cfg.Chapters < 1 {
		return nil, fmt.Errorf("publisher: need at least one chapter, got %d", cfg.Chapters)
	}
	if cfg.EventsPerChapter < 1 {
		return nil, fmt.Errorf("publisher: need at least one event per chapter, got %d", cfg.EventsPerChapter)
	}
	if cfg.Title == "" {
		cfg.Title = sc.Title
	}
	if cfg.Title == "" {
		cfg.Title = "Untitled"
	}

	p := &Publisher{
		cfg:     cfg,
		setting: sc.Build(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.sky == nil {
		p.sky = world.NewWeather(cfg.Seed)
	}
	return p, nil
}

// Publish writes the title and every chapter to w.
func (p *Publisher) Publish(w io.Writer) error {
	title := p.cfg.Title
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", title, strings.Repeat("=", len(title))); err != nil {
		return err
	}

	start := time.Now()
	for n := 1; n <= p.cfg.Chapters; n++ {
		if _, err := fmt.Fprintf(w, "Chapter %d.\n-----------\n\n", n); err != nil {
			return err
		}
		if err := p.PublishChapter(w, n); err != nil {
			return fmt.Errorf("chapter %d: %w", n, err)
		}
	}
	p.logger.Info("book published",
		"title", title,
		"chapters", p.cfg.Chapters,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// PublishChapter simulates one chapter and writes its paragraphs to w.
func (p *Publisher) PublishChapter(w io.Writer, n int) error {
	p.logger.Info("chapter started", "chapter", n)

	collector, err := p.simulate()
	if err != nil {
		return err
	}

	if p.journal != nil {
		if err := p.record(n, collector); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	if p.cfg.Debug {
		if err := p.dump(w, collector); err != nil {
			return err
		}
	}

	cast := make([]events.Entity, len(p.setting.Characters))
	for i, c := range p.setting.Characters {
		cast[i] = c
	}
	opts := []editor.Option{
		editor.WithRand(p.rng),
		editor.WithLogger(p.logger),
		editor.WithTransformers(editor.DefaultChain()...),
	}
	if p.cfg.Friffery {
		opts = append(opts, editor.WithTransformers(editor.Friffery(p.sky, p.rng)...))
	}
	ed, err := editor.New(collector, cast, opts...)
	if err != nil {
		return err
	}
	if err := ed.Publish(w); err != nil {
		return err
	}

	if p.cfg.Debug {
		if err := p.dumpWitnesses(w, ed); err != nil {
			return err
		}
	}

	p.logger.Info("chapter published",
		"chapter", n,
		"events", humanize.Comma(int64(collector.Len())),
	)
	return nil
}

// simulate places every character and lets them live until the chapter
// has enough events.
func (p *Publisher) simulate() (*events.Collector, error) {
	collector := events.NewCollector()
	for _, c := range p.setting.Characters {
		c.Attach(collector)
	}
	defer func() {
		for _, c := range p.setting.Characters {
			c.Attach(nil)
		}
	}()

	// nobody is anywhere until placed, so no one sees a character left
	// over from the previous chapter
	for _, c := range p.setting.Characters {
		c.MoveTo(nil)
	}
	for _, c := range p.setting.Characters {
		start := p.setting.Start(c)
		if start == nil {
			start = p.setting.Places[p.rng.Intn(len(p.setting.Places))]
		}
		if err := c.PlaceIn(start); err != nil {
			return nil, err
		}
	}

	for collector.Len() < p.cfg.EventsPerChapter {
		before := collector.Len()
		for _, c := range p.setting.Characters {
			if _, err := c.Live(p.rng); err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name(), err)
			}
		}
		if collector.Len() == before {
			return nil, ErrStuck
		}
	}
	return collector, nil
}

func (p *Publisher) record(n int, collector *events.Collector) error {
	now := time.Now().UnixMilli()
	ch := &store.Chapter{
		BookTitle: p.cfg.Title,
		Number:    n,
		Seed:      p.cfg.Seed,
		CreatedAt: now,
	}
	if err := p.journal.CreateChapter(ch); err != nil {
		return err
	}

	collected := collector.Events()
	records := make([]*store.EventRecord, len(collected))
	for i, e := range collected {
		records[i] = &store.EventRecord{
			Phrase:           e.Phrase(),
			Text:             e.String(),
			Class:            diction.Classify(e.Phrase()).String(),
			Participants:     names(e.Participants()),
			Location:         name(e.Location()),
			PreviousLocation: name(e.PreviousLocation()),
			Exciting:         e.Exciting(),
			Exclaimed:        e.Exclaimed(),
			CreatedAt:        now,
		}
	}
	if err := p.journal.AppendEvents(ch.ID, records); err != nil {
		return err
	}
	p.logger.Debug("chapter journalled", "chapter", n, "id", ch.ID, "events", len(records))
	return nil
}

func names(es []events.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = name(e)
	}
	return out
}

func name(e events.Entity) string {
	if e == nil {
		return ""
	}
	return e.Name()
}
