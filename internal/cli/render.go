package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coral-mesh/geoinspect/pkg/extract"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
)

var (
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// entry is the outcome of loading one name.
type entry struct {
	name   string
	result *extract.Result
	err    error
}

func writeText(w io.Writer, entries []entry, mismatch error) error {
	var b strings.Builder
	for _, e := range entries {
		if e.err != nil {
			fmt.Fprintf(&b, "%s %s\n", nameStyle.Render(e.name), errorStyle.Render("✗ "+e.err.Error()))
			continue
		}
		r := e.result
		header := []string{nameStyle.Render(e.name), kindStyle.Render(r.Kind.String())}
		if !r.Traits.IsZero() {
			header = append(header, r.Traits.String())
		}
		header = append(header, hintStyle.Render(r.Duration.String()))
		b.WriteString(strings.Join(header, "  "))
		b.WriteString("\n  ")
		b.WriteString(geometry.WKT(r.Value))
		b.WriteString("\n")
		if env, ok := r.Value.Envelope(); ok {
			b.WriteString(hintStyle.Render("  envelope " + geometry.WKT(env)))
			b.WriteString("\n")
		}
	}
	if mismatch != nil {
		b.WriteString(errorStyle.Render("! " + mismatch.Error()))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeWKT(w io.Writer, entries []entry) error {
	for _, e := range entries {
		if e.err != nil {
			continue
		}
		if _, err := fmt.Fprintln(w, geometry.WKT(e.result.Value)); err != nil {
			return err
		}
	}
	return nil
}

type jsonEntry struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind,omitempty"`
	Traits     string            `json:"traits,omitempty"`
	WKT        string            `json:"wkt,omitempty"`
	Value      geometry.Drawable `json:"value,omitempty"`
	Envelope   *geometry.Box     `json:"envelope,omitempty"`
	Generation string            `json:"generation,omitempty"`
	DurationMS float64           `json:"duration_ms,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type jsonOutput struct {
	Results  []jsonEntry `json:"results"`
	Warnings []string    `json:"warnings,omitempty"`
}

func jsonReport(entries []entry, mismatch error) jsonOutput {
	out := jsonOutput{Results: make([]jsonEntry, 0, len(entries))}
	for _, e := range entries {
		je := jsonEntry{Name: e.name}
		if e.err != nil {
			je.Error = e.err.Error()
			out.Results = append(out.Results, je)
			continue
		}
		r := e.result
		je.Kind = r.Kind.String()
		if !r.Traits.IsZero() {
			je.Traits = r.Traits.String()
		}
		je.WKT = geometry.WKT(r.Value)
		je.Value = r.Value
		if env, ok := r.Value.Envelope(); ok {
			je.Envelope = &env
		}
		je.Generation = r.Generation.String()
		je.DurationMS = float64(r.Duration.Microseconds()) / 1000
		out.Results = append(out.Results, je)
	}
	if mismatch != nil {
		out.Warnings = append(out.Warnings, mismatch.Error())
	}
	return out
}
