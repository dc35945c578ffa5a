package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Variant selects the look of a loading indicator.
type Variant string

const (
	VariantSpinner Variant = "spinner"
	VariantDots    Variant = "dots"
	VariantBar     Variant = "bar"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const pulseWidth = 10

// Indicator is a stateless loading animation; Frame is a pure function of
// the tick.
type Indicator struct {
	Variant  Variant
	Label    string
	Interval time.Duration
	Style    lipgloss.Style
}

// NewIndicator returns an indicator of the given variant. Unknown
// variants fall back to the spinner.
func NewIndicator(v Variant, label string) Indicator {
	switch v {
	case VariantSpinner, VariantDots, VariantBar:
	default:
		v = VariantSpinner
	}
	return Indicator{
		Variant:  v,
		Label:    label,
		Interval: 100 * time.Millisecond,
		Style:    lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb")),
	}
}

// Frame returns the text shown at tick i.
func (in Indicator) Frame(i int) string {
	var glyph string
	switch in.Variant {
	case VariantDots:
		n := tick(i, 4)
		glyph = strings.Repeat(".", n) + strings.Repeat(" ", 3-n)
	case VariantBar:
		// a three cell block bouncing across the track
		span := pulseWidth - 3
		pos := tick(i, 2*span)
		if pos > span {
			pos = 2*span - pos
		}
		glyph = "[" + strings.Repeat(" ", pos) + "===" + strings.Repeat(" ", span-pos) + "]"
	default:
		glyph = spinnerFrames[tick(i, len(spinnerFrames))]
	}
	glyph = in.Style.Render(glyph)
	if in.Label == "" {
		return glyph
	}
	if in.Variant == VariantDots {
		return in.Label + glyph
	}
	return glyph + " " + in.Label
}

// tick maps i into [0, n); negative ticks mirror positive ones.
func tick(i, n int) int {
	i %= n
	if i < 0 {
		i = -i
	}
	return i
}

// Run redraws the indicator on w every Interval until ctx is done, then
// clears the line.
func (in Indicator) Run(ctx context.Context, w io.Writer) error {
	interval := in.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if _, err := fmt.Fprintf(w, "\r%s", in.Frame(i)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			_, err := fmt.Fprint(w, "\r\x1b[2K")
			return err
		case <-ticker.C:
		}
	}
}
