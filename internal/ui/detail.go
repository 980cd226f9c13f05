package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// DetailBuilder builds aligned key-value blocks.
type DetailBuilder struct {
	b            strings.Builder
	labelStyle   lipgloss.Style
	sectionStyle lipgloss.Style
}

// NewDetailBuilder creates a builder with a fixed-width label column.
func NewDetailBuilder(labelWidth int) *DetailBuilder {
	return &DetailBuilder{
		labelStyle:   MutedStyle.Width(labelWidth),
		sectionStyle: TitleStyle,
	}
}

// Row writes a labeled key-value row. Empty values are skipped.
func (d *DetailBuilder) Row(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(&d.b, "  %s %s\n", d.labelStyle.Render(label), value)
}

// Section writes a section heading like "── title ──────...".
func (d *DetailBuilder) Section(title string) {
	pad := max(40-len(title), 4)
	heading := fmt.Sprintf("── %s %s", title, strings.Repeat("─", pad))
	d.b.WriteString(d.sectionStyle.Render(heading) + "\n")
}

// Blank writes an empty line.
func (d *DetailBuilder) Blank() {
	d.b.WriteString("\n")
}

// WriteString appends arbitrary text.
func (d *DetailBuilder) WriteString(s string) {
	d.b.WriteString(s)
}

func (d *DetailBuilder) String() string {
	return d.b.String()
}
