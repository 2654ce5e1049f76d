package editor

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/kittclouds/storyloom/pkg/events"
	"github.com/kittclouds/storyloom/pkg/grammar"
	"github.com/kittclouds/storyloom/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, c *events.Collector, es ...*events.Event) {
	t.Helper()
	for _, e := range es {
		require.NoError(t, c.Collect(e))
	}
}

// fidget emits n alternating pick-up/put-down events for who.
func fidget(t *testing.T, c *events.Collector, who, item *world.Thing, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		phrase := "<1> picked up <2>"
		if i%2 == 1 {
			phrase = "<1> put down <2>"
		}
		collect(t, c, mk(t, phrase, []events.Entity{who, item}))
	}
}

func newEditor(t *testing.T, c *events.Collector, main ...*world.Thing) *Editor {
	t.Helper()
	chars := make([]events.Entity, len(main))
	for i, m := range main {
		chars[i] = m
	}
	ed, err := New(c, chars, WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)
	return ed
}

func TestNewRequiresCharacters(t *testing.T) {
	_, err := New(events.NewCollector(), nil)
	assert.ErrorIs(t, err, events.ErrContract)
}

func TestQuotaBoundsParagraph(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.bob.MoveTo(c.kitchen)
	collect(t, col, mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}))
	fidget(t, col, c.bob, c.key, 100)

	ed := newEditor(t, col, c.bob)
	for ed.Pending() > 0 {
		p, err := ed.NextParagraph()
		require.NoError(t, err)
		if ed.Pending() > 0 {
			assert.GreaterOrEqual(t, len(p), MinQuota)
		}
		assert.LessOrEqual(t, len(p), MaxQuota)
	}
}

func TestBootstrapNeedsStartingLocation(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.bob.MoveTo(c.kitchen)
	collect(t, col, mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}))
	fidget(t, col, c.bob, c.key, 4)

	ed := newEditor(t, col, c.alice, c.bob)
	_, err := ed.NextParagraph()
	assert.ErrorIs(t, err, events.ErrContract)
}

func TestEventWithoutLocation(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	collect(t, col, mk(t, "<1> sighed", []events.Entity{c.bob}))

	ed := newEditor(t, col, c.bob)
	_, err := ed.NextParagraph()
	assert.ErrorIs(t, err, events.ErrContract)
}

func TestOpeningLocationChangeNeedsNoCatchUp(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.bob.MoveTo(c.kitchen)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}),
		travel(t, c.bob, c.hall),
	)

	ed := newEditor(t, col, c.bob)
	p, err := ed.NextParagraph()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob was in the kitchen.", "Bob went to the hall."}, strs(p))
}

func TestCatchUpAndExcitingDisclosure(t *testing.T) {
	c := newCast()
	earrings := world.NewThing("golden earrings", world.KindTreasure, grammar.Resolve(grammar.Plural, false))
	col := events.NewCollector()

	c.alice.MoveTo(c.hall)
	c.bob.MoveTo(c.kitchen)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.alice, c.hall}),
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}),
		mk(t, events.PhraseFound, []events.Entity{c.bob, earrings, c.kitchen}, events.Exciting()),
	)
	fidget(t, col, c.alice, c.key, 40)
	collect(t, col,
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.toaster}),
		mk(t, "<1> put down <2>", []events.Entity{c.bob, c.toaster}),
	)

	ed := newEditor(t, col, c.alice, c.bob)

	p1, err := ed.NextParagraph()
	require.NoError(t, err)
	require.NotEmpty(t, p1)
	assert.Equal(t, "Alice was in the hall.", p1[0].String())
	for _, s := range p1 {
		assert.Equal(t, events.Entity(c.alice), s.Initiator())
	}
	assert.Equal(t, []Development{{Object: earrings, Location: c.kitchen}}, ed.Developments(c.bob))
	assert.Contains(t, ed.Missed(c.alice), uint32(1))
	assert.Contains(t, ed.Missed(c.alice), uint32(2))
	assert.Contains(t, ed.Witnessed(c.alice), uint32(0))

	p2, err := ed.NextParagraph()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Bob was in the kitchen.",
		"Bob had found the golden earrings in the kitchen.",
		"Bob picked up the toaster.",
		"Bob put down the toaster.",
	}, strs(p2))
	assert.Equal(t, events.Entity(c.kitchen), p2[0].Location())
	assert.Equal(t, events.Entity(c.kitchen), p2[1].Location())
	assert.Empty(t, ed.Developments(c.bob))
	assert.Zero(t, ed.Pending())
}

func TestRoundRobin(t *testing.T) {
	tests := []struct {
		name string
		size int
		want []string
	}{
		{"two", 2, []string{"Alice", "Bob", "Alice", "Bob"}},
		{"three", 3, []string{"Alice", "Bob", "Carol", "Alice", "Bob", "Carol"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCast()
			carol := world.NewCharacter("Carol", grammar.Feminine)
			vase := world.NewThing("vase", world.KindItem, grammar.Resolve(grammar.Neuter, false))
			main := []*world.Thing{c.alice, c.bob, carol}[:tt.size]
			props := []*world.Thing{c.key, c.toaster, vase}

			col := events.NewCollector()
			for _, who := range main {
				who.MoveTo(c.hall)
				collect(t, col, mk(t, events.PhraseWasIn, []events.Entity{who, c.hall}))
			}
			for i := 0; i < 60; i++ {
				for j, who := range main {
					fidget(t, col, who, props[j], 2)
				}
			}

			ed := newEditor(t, col, main...)
			var povs []string
			for i := 0; i < len(tt.want) && ed.Pending() > 0; i++ {
				before := make(map[*world.Thing]int, len(main))
				for _, who := range main {
					before[who] = len(ed.Witnessed(who))
				}
				_, err := ed.NextParagraph()
				require.NoError(t, err)
				for _, who := range main {
					if len(ed.Witnessed(who)) > before[who] {
						povs = append(povs, who.Name())
					}
				}
			}
			assert.Equal(t, tt.want, povs)
		})
	}
}

// fixedSource makes every paragraph quota MinQuota.
type fixedSource struct{}

func (fixedSource) Int63() int64 { return 0 }
func (fixedSource) Seed(int64)   {}

func newFixedEditor(t *testing.T, c *events.Collector, main ...*world.Thing) *Editor {
	t.Helper()
	chars := make([]events.Entity, len(main))
	for i, m := range main {
		chars[i] = m
	}
	ed, err := New(c, chars, WithRand(rand.New(fixedSource{})))
	require.NoError(t, err)
	return ed
}

func TestCatchUpWaitsForFirstWitnessedEvent(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.alice.MoveTo(c.hall)
	c.bob.MoveTo(c.kitchen)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.alice, c.hall}),
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}),
	)
	fidget(t, col, c.alice, c.key, MinQuota-1)
	// Bob's paragraph opens on something he cannot see
	collect(t, col,
		mk(t, "<1> picked up <2>", []events.Entity{c.alice, c.toaster}),
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.toaster}),
	)

	ed := newFixedEditor(t, col, c.alice, c.bob)
	p1, err := ed.NextParagraph()
	require.NoError(t, err)
	require.Len(t, p1, MinQuota)

	p2, err := ed.NextParagraph()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob was in the kitchen.", "Bob picked up the toaster."}, strs(p2))
	assert.Equal(t, events.Entity(c.kitchen), p2[0].Location())
	assert.Contains(t, ed.Missed(c.bob), uint32(MinQuota+1))
	assert.Equal(t, []uint32{MinQuota + 2}, ed.Witnessed(c.bob))
}

func TestStaleLocationThenTravel(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.alice.MoveTo(c.hall)
	c.bob.MoveTo(c.hall)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.alice, c.hall}),
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.hall}),
		travel(t, c.bob, c.kitchen),
	)
	fidget(t, col, c.alice, c.key, MinQuota-2)
	collect(t, col,
		travel(t, c.bob, c.garden),
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.toaster}),
	)

	ed := newFixedEditor(t, col, c.alice, c.bob)
	p1, err := ed.NextParagraph()
	require.NoError(t, err)
	require.Len(t, p1, MinQuota)
	assert.Equal(t, "Bob was in the hall.", p1[1].String())

	// the reader last saw Bob in the hall and he left for the kitchen
	// off-page; the journey itself says where he is now
	p2, err := ed.NextParagraph()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob went to the garden.", "Bob picked up the toaster."}, strs(p2))
	assert.Contains(t, ed.Missed(c.alice), uint32(2))
}

func TestPublishFormat(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.bob.MoveTo(c.kitchen)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}),
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.toaster}),
	)

	ed := newEditor(t, col, c.bob)
	var buf bytes.Buffer
	require.NoError(t, ed.Publish(&buf))
	assert.Equal(t, "Bob was in the kitchen.  Bob picked up the toaster.\n\n\n", buf.String())
}

func TestPublishSkipsEmptyParagraphs(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.alice.MoveTo(c.hall)
	c.bob.MoveTo(c.kitchen)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.alice, c.hall}),
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.kitchen}),
	)
	fidget(t, col, c.alice, c.key, 60)

	ed := newEditor(t, col, c.alice, c.bob)
	var buf bytes.Buffer
	require.NoError(t, ed.Publish(&buf))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n\n\n"))
	assert.True(t, strings.HasPrefix(buf.String(), "Alice was in the hall."))
	assert.Empty(t, ed.Witnessed(c.bob))
	assert.NotEmpty(t, ed.Missed(c.bob))
}

func TestPublishRunsChain(t *testing.T) {
	c := newCast()
	col := events.NewCollector()
	c.bob.MoveTo(c.hall)
	collect(t, col,
		mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.hall}),
		travel(t, c.bob, c.kitchen),
		travel(t, c.bob, c.garden),
	)

	ed := newEditor(t, col, c.bob)
	for _, tr := range DefaultChain() {
		ed.AddTransformer(tr)
	}
	var buf bytes.Buffer
	require.NoError(t, ed.Publish(&buf))
	assert.Equal(t, "Bob was in the hall.  He made his way to the garden.\n\n\n", buf.String())
}
