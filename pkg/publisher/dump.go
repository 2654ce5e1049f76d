package publisher

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kittclouds/storyloom/pkg/editor"
	"github.com/kittclouds/storyloom/pkg/events"
)

// dump writes each character's raw events and beliefs ahead of the
// chapter text.
func (p *Publisher) dump(w io.Writer, collector *events.Collector) error {
	var b strings.Builder
	collected := collector.Events()

	for _, c := range p.setting.Characters {
		fmt.Fprintf(&b, "%s'S EVENTS:\n", strings.ToUpper(c.Name()))
		for _, e := range collected {
			if !events.SameEntity(e.Initiator(), c) {
				continue
			}
			rendered := make([]string, 0, len(e.Participants()))
			for _, x := range e.Participants() {
				rendered = append(rendered, x.Render(e.Initiator()))
			}
			fmt.Fprintf(&b, "%q in %s: %s\n", rendered, e.Location().Render(nil), e.Phrase())
		}
		b.WriteString("\n")
	}

	for _, c := range p.setting.Characters {
		fmt.Fprintf(&b, "%s'S STATE:\n", strings.ToUpper(c.Name()))
		for _, belief := range c.Beliefs() {
			verb := "in"
			if belief.Where.Animate() {
				verb = "held by"
			}
			fmt.Fprintf(&b, "  %s %s %s %s\n",
				belief.Item.Render(nil), belief.Item.Is(), verb, belief.Where.Render(nil))
		}
		b.WriteString("\n")
	}
	b.WriteString("- - - - -\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// dumpWitnesses writes how much of the chapter each point of view saw.
func (p *Publisher) dumpWitnesses(w io.Writer, ed *editor.Editor) error {
	var b strings.Builder
	b.WriteString("- - - - -\n\n")
	for _, c := range p.setting.Characters {
		seen, missed := len(ed.Witnessed(c)), len(ed.Missed(c))
		share := 0.0
		if total := seen + missed; total > 0 {
			share = 100 * float64(seen) / float64(total)
		}
		fmt.Fprintf(&b, "%s WITNESSED %s EVENTS AND MISSED %s (%.1f%%)\n",
			strings.ToUpper(c.Name()),
			humanize.Comma(int64(seen)),
			humanize.Comma(int64(missed)),
			share,
		)
		if pending := ed.Developments(c); len(pending) > 0 {
			fmt.Fprintf(&b, "  undisclosed developments: %s\n", humanize.Comma(int64(len(pending))))
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
