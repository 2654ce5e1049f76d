package editor

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/kittclouds/storyloom/pkg/events"
	"github.com/kittclouds/storyloom/pkg/grammar"
	"github.com/kittclouds/storyloom/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cast struct {
	hall, kitchen, garden *world.Thing
	alice, bob            *world.Thing
	key, toaster          *world.Thing
}

func newCast() *cast {
	c := &cast{
		hall:    world.NewPlace("hall", "", false),
		kitchen: world.NewPlace("kitchen", "", false),
		garden:  world.NewPlace("garden", "garden", false),
		alice:   world.NewCharacter("Alice", grammar.Feminine),
		bob:     world.NewCharacter("Bob", grammar.Masculine),
		key:     world.NewThing("key", world.KindItem, grammar.Resolve(grammar.Neuter, false)),
		toaster: world.NewThing("toaster", world.KindItem, grammar.Resolve(grammar.Neuter, false)),
	}
	c.hall.SetExits(c.kitchen, c.garden)
	c.kitchen.SetExits(c.hall)
	c.garden.SetExits(c.hall)
	return c
}

func mk(t *testing.T, phrase string, ps []events.Entity, opts ...events.Option) *events.Event {
	t.Helper()
	e, err := events.New(phrase, ps, opts...)
	require.NoError(t, err)
	return e
}

func strs(ss []events.Sentence) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}

// travel moves who to dest and returns the matching "went to" event.
func travel(t *testing.T, who, dest *world.Thing) *events.Event {
	t.Helper()
	from := who.Place()
	who.MoveTo(dest)
	return mk(t, events.PhraseWentTo, []events.Entity{who, dest}, events.From(from))
}

// =============================================================================
// Rewrite passes
// =============================================================================

func TestDeduplicate(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	pick := func() events.Sentence {
		return mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key})
	}
	drop := mk(t, "<1> put down <2>", []events.Entity{c.bob, c.key})

	tests := []struct {
		name string
		in   []events.Sentence
		want []string
	}{
		{"single", []events.Sentence{pick()}, []string{"Bob picked up the key."}},
		{"twice", []events.Sentence{pick(), pick()}, []string{"Bob picked up the key, twice."}},
		{"three times", []events.Sentence{pick(), pick(), pick()}, []string{"Bob picked up the key, several times."}},
		{"five times", []events.Sentence{pick(), pick(), pick(), pick(), pick()}, []string{"Bob picked up the key, several times."}},
		{"not adjacent", []events.Sentence{pick(), drop, pick()}, []string{
			"Bob picked up the key.",
			"Bob put down the key.",
			"Bob picked up the key.",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Deduplicate{}.Transform(tt.in, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strs(out))
		})
	}
}

func TestDeduplicateLeavesInputAlone(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	in := []events.Sentence{
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key}),
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key}),
	}
	_, err := Deduplicate{}.Transform(in, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob picked up the key.", "Bob picked up the key."}, strs(in))
}

func TestMadeTheirWay(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	in := []events.Sentence{
		travel(t, c.bob, c.kitchen),
		travel(t, c.bob, c.hall),
		travel(t, c.bob, c.garden),
	}

	out, err := MadeTheirWay{}.Transform(in, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Bob made his way to the garden.", out[0].String())
	assert.Equal(t, events.Entity(c.hall), out[0].PreviousLocation())
	assert.Equal(t, events.Entity(c.garden), out[0].Location())
}

func TestMadeTheirWayKeepsOtherTravellers(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	c.alice.MoveTo(c.hall)
	in := []events.Sentence{
		travel(t, c.bob, c.kitchen),
		travel(t, c.alice, c.garden),
	}

	out, err := MadeTheirWay{}.Transform(in, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob went to the kitchen.", "Alice went to the garden."}, strs(out))
}

func TestDetectWandering(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	in := []events.Sentence{
		travel(t, c.bob, c.kitchen),
		travel(t, c.bob, c.hall),
	}

	out, err := MadeTheirWay{}.Transform(in, 1)
	require.NoError(t, err)
	out, err = DetectWandering{}.Transform(out, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob wandered around for a bit, then came back to the hall."}, strs(out))
}

func TestAggregate(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	went := travel(t, c.bob, c.kitchen)
	saw := mk(t, events.PhraseSaw, []events.Entity{c.bob, c.toaster})

	out, err := Aggregate{}.Transform([]events.Sentence{went, saw}, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Bob went to the kitchen, where he saw the toaster.", out[0].String())
	assert.Equal(t, events.Entity(c.kitchen), out[0].Location())
	assert.Equal(t, events.PhraseWentTo, out[0].Phrase())
}

func TestUsePronouns(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	c.alice.MoveTo(c.hall)
	in := []events.Sentence{
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key}),
		travel(t, c.bob, c.garden),
		mk(t, events.PhraseSaw, []events.Entity{c.alice, c.key}),
		mk(t, "'Hello, <2>,' said <1>", []events.Entity{c.alice, c.bob}),
	}

	out, err := UsePronouns{}.Transform(in, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Bob picked up the key.",
		"He went to the garden.",
		"Alice saw the key.",
		"'Hello, Bob,' said Alice.",
	}, strs(out))
}

func TestDefaultChain(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	c.alice.MoveTo(c.garden)
	in := []events.Sentence{
		travel(t, c.bob, c.kitchen),
		travel(t, c.bob, c.garden),
		mk(t, events.PhraseSaw, []events.Entity{c.bob, c.alice}),
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key}),
		mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key}),
		travel(t, c.bob, c.hall),
		mk(t, events.PhraseSaw, []events.Entity{c.bob, c.toaster}),
	}

	out := in
	var err error
	for _, tr := range DefaultChain() {
		out, err = tr.Transform(out, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"Bob made his way to the garden.",
		"He saw Alice.",
		"He picked up the key, twice.",
		"He went to the hall, where he saw the toaster.",
	}, strs(out))
}

// =============================================================================
// Friffery
// =============================================================================

type stubSky struct {
	entity events.Entity
}

func (s stubSky) Entity() events.Entity       { return s.entity }
func (s stubSky) Outlook(_ *rand.Rand) string { return "It was raining" }

func TestWeatherFriffery(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	sky := stubSky{entity: world.NewThing("weather", world.KindWeather, grammar.Resolve(grammar.Neuter, false))}
	w := NewWeatherFriffery(sky, rand.New(rand.NewSource(1)))
	in := []events.Sentence{mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key})}

	out, err := w.Transform(in, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"It was raining.", "Bob picked up the key."}, strs(out))

	out, err = w.Transform(in, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob picked up the key."}, strs(out))
}

func TestParagraphStartFriffery(t *testing.T) {
	c := newCast()
	c.bob.MoveTo(c.hall)
	c.alice.MoveTo(c.hall)
	plain := mk(t, "<1> picked up <2>", []events.Entity{c.bob, c.key})
	spoken := mk(t, "'Hello, <2>,' said <1>", []events.Entity{c.bob, c.alice})
	caught := mk(t, events.PhraseHadFound, []events.Entity{c.bob, c.key, c.hall})
	was := mk(t, events.PhraseWasIn, []events.Entity{c.bob, c.hall})

	f := NewParagraphStartFriffery(rand.New(rand.NewSource(3)))

	out, err := f.Transform([]events.Sentence{plain}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob picked up the key."}, strs(out))

	for _, s := range []events.Sentence{spoken, caught, was} {
		out, err := f.Transform([]events.Sentence{s}, 4)
		require.NoError(t, err)
		assert.Equal(t, s.String(), out[0].String())
	}

	decorated := 0
	for i := 0; i < 200; i++ {
		out, err := f.Transform([]events.Sentence{plain}, 2)
		require.NoError(t, err)
		text := out[0].String()
		if text == "Bob picked up the key." {
			continue
		}
		decorated++
		var known bool
		for _, o := range openers {
			known = known || strings.HasPrefix(text, o)
		}
		assert.True(t, known, text)
		assert.True(t, strings.HasSuffix(text, "Bob picked up the key."), text)
	}
	assert.Greater(t, decorated, 0)
	assert.Less(t, decorated, 200)
}

func TestTransformerFunc(t *testing.T) {
	var got int
	f := TransformerFunc(func(in []events.Sentence, paragraph int) ([]events.Sentence, error) {
		got = paragraph
		return in[:0], nil
	})
	out, err := f.Transform(nil, 7)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 7, got)
}
