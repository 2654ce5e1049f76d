package world

import (
	"math/rand"

	"github.com/kittclouds/storyloom/pkg/events"
	"github.com/kittclouds/storyloom/pkg/grammar"
	"github.com/ojrac/opensimplex-go"
)

var outlooks = []string{
	"It was raining",
	"It was snowing",
	"The sun was shining",
	"The day was overcast and humid",
}

// Weather is the sky over the whole setting. Each Outlook call advances a
// day; successive days drift through smooth noise, so the weather tends to
// hold for a while before it turns.
type Weather struct {
	thing *Thing
	noise opensimplex.Noise
	day   float64
}

// NewWeather creates the weather entity.
func NewWeather(seed int64) *Weather {
	return &Weather{
		thing: NewThing("weather", KindWeather, grammar.Resolve(grammar.Neuter, false)),
		noise: opensimplex.NewNormalized(seed),
	}
}

// Entity returns the entity weather events are attributed to.
func (w *Weather) Entity() events.Entity {
	return w.thing
}

// Outlook returns the phrase for the next day's weather.
func (w *Weather) Outlook(rng *rand.Rand) string {
	w.day++
	v := w.noise.Eval2(w.day*0.35, rng.Float64()*0.2)
	i := int(v * float64(len(outlooks)))
	if i < 0 {
		i = 0
	}
	if i >= len(outlooks) {
		i = len(outlooks) - 1
	}
	return outlooks[i]
}
