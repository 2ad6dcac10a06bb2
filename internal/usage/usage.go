// Package usage renders help and error output from a shape. All layout is
// computed from visible display width, so colored and plain renderings align
// identically.
package usage

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/argot-go/argot/internal/shape"
)

// Renderer formats help and error text for one program. Color selects ANSI
// styling; everything else about the output is identical either way.
type Renderer struct {
	Program string
	Color   bool
}

type palette struct {
	cyan        lipgloss.Style
	brightRed   lipgloss.Style
	brightCyan  lipgloss.Style
	brightWhite lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		return palette{}
	}
	// A fixed ANSI profile keeps output identical regardless of the terminal
	// the process happens to run in.
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return palette{
		cyan:        r.NewStyle().Foreground(lipgloss.Color("6")),
		brightRed:   r.NewStyle().Foreground(lipgloss.Color("9")),
		brightCyan:  r.NewStyle().Foreground(lipgloss.Color("14")),
		brightWhite: r.NewStyle().Foreground(lipgloss.Color("15")),
	}
}

// Error renders a usage error banner followed by the one-line usage string.
func (r *Renderer) Error(message string, s *shape.Shape) string {
	p := newPalette(r.Color)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", p.brightRed.Render("ERROR"), message)
	fmt.Fprintf(&b, "%s %s %s\n\n",
		p.brightWhite.Render("USAGE:"),
		p.brightCyan.Render(r.Program),
		p.cyan.Render(s.Usage()),
	)
	fmt.Fprintf(&b, "For more information, use %s.", p.brightCyan.Render("--help"))
	return b.String()
}

// Version renders the version banner.
func (r *Renderer) Version(s *shape.Shape) string {
	return s.VersionString()
}

// Help renders the full help message: description, usage line, required
// arguments, option groups, override options, and variant groups.
func (r *Renderer) Help(s *shape.Shape) string {
	p := newPalette(r.Color)
	var b strings.Builder

	if description := s.Describe(); description != "" {
		b.WriteString(description)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "%s: %s %s",
		p.brightWhite.Render("USAGE"),
		p.brightCyan.Render(r.Program),
		p.cyan.Render(s.Usage()),
	)

	r.writeRequired(&b, p, s)
	r.writeOptions(&b, p, s)
	r.writeOverrides(&b, p, s)
	r.writeVariants(&b, p, s)

	return b.String()
}

func (r *Renderer) writeRequired(b *strings.Builder, p palette, s *shape.Shape) {
	arguments := s.RequiredArguments()
	if len(arguments) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n%s", p.brightWhite.Render("Required Arguments:"))
	widest := 0
	for _, argument := range arguments {
		if w := runewidth.StringWidth(argument.Name); w > widest {
			widest = w
		}
	}
	for _, argument := range arguments {
		name := fmt.Sprintf("<%s>", argument.Name)
		fmt.Fprintf(b, "\n  %s%s  %s",
			p.brightCyan.Render(name),
			pad(name, widest+2),
			argument.Description,
		)
	}
}

func (r *Renderer) writeOptions(b *strings.Builder, p palette, s *shape.Shape) {
	for index, group := range s.OptionalGroups() {
		if len(group.Fields) == 0 {
			continue
		}
		if index == 0 {
			fmt.Fprintf(b, "\n\n%s", p.brightWhite.Render("Global Options:"))
		} else {
			fmt.Fprintf(b, "\n\n%s", p.brightWhite.Render(group.Name+" Options"))
		}

		shorts := make([]string, len(group.Fields))
		longs := make([]string, len(group.Fields))
		longsPlain := make([]string, len(group.Fields))
		for i, field := range group.Fields {
			var short, long, longPlain strings.Builder
			for _, name := range field.Names() {
				if runewidth.StringWidth(name) == 1 {
					if short.Len() > 0 {
						short.WriteByte(' ')
					}
					short.WriteString("-" + name)
				} else {
					long.WriteString(p.brightCyan.Render("--"+name) + " ")
					longPlain.WriteString("--" + name + " ")
				}
			}
			flagUsage := field.FlagUsage()
			long.WriteString(p.cyan.Render(flagUsage))
			longPlain.WriteString(flagUsage)
			shorts[i] = short.String()
			longs[i] = long.String()
			longsPlain[i] = longPlain.String()
		}

		widestShort, widestLong := 0, 0
		for i := range group.Fields {
			if w := runewidth.StringWidth(shorts[i]); w > widestShort {
				widestShort = w
			}
			if w := runewidth.StringWidth(longsPlain[i]); w > widestLong {
				widestLong = w
			}
		}

		for i, field := range group.Fields {
			separator := " "
			if widestShort == 0 {
				separator = ""
			}
			gap := "  "
			if widestLong == 0 {
				gap = " "
			}
			fmt.Fprintf(b, "\n  %s%s%s%s%s%s",
				p.brightCyan.Render(shorts[i]),
				pad(shorts[i], widestShort),
				separator,
				longs[i],
				pad(longsPlain[i], widestLong),
				gap+field.Description,
			)
		}
	}
}

func (r *Renderer) writeOverrides(b *strings.Builder, p palette, s *shape.Shape) {
	fmt.Fprintf(b, "\n\n%s\n  %s  Display this message.",
		p.brightWhite.Render("Override Options:"),
		p.brightCyan.Render("-h --help"),
	)
	if s.VersionString() != "" {
		fmt.Fprintf(b, "\n  %s  Display version information.", p.brightCyan.Render("--version"))
	}
}

func (r *Renderer) writeVariants(b *strings.Builder, p palette, s *shape.Shape) {
	for _, group := range s.VariantGroups() {
		fmt.Fprintf(b, "\n\n%s", p.brightWhite.Render(group.Name+" Variants:"))

		entries := make([]string, len(group.Variants))
		plain := make([]string, len(group.Variants))
		for i, variant := range group.Variants {
			names := strings.Join(variant.Names(), " ") + " "
			inner := variant.Shape.GroupedUsage()
			entries[i] = p.brightCyan.Render(names) + p.cyan.Render(inner)
			plain[i] = names + inner
		}

		widest := 0
		for i := range plain {
			if w := runewidth.StringWidth(plain[i]); w > widest {
				widest = w
			}
		}
		for i, variant := range group.Variants {
			fmt.Fprintf(b, "\n  %s%s  %s", entries[i], pad(plain[i], widest), variant.Description)
		}
	}
}

// pad returns the spaces needed to fill text out to width columns.
func pad(text string, width int) string {
	remaining := width - runewidth.StringWidth(text)
	if remaining <= 0 {
		return ""
	}
	return strings.Repeat(" ", remaining)
}
