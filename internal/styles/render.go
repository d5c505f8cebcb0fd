package styles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/adminkit/internal/dom"
	"github.com/Iron-Ham/adminkit/internal/util"
)

// Styles holds the lipgloss styles used to render a document.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Text    lipgloss.Style
	Link    lipgloss.Style
	Active  lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}

// New builds the styles for p.
func New(p *ColorPalette) *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Primary).MarginBottom(1),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Text:    lipgloss.NewStyle().Foreground(p.Text),
		Link:    lipgloss.NewStyle().Foreground(p.Secondary),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(p.Error),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

// progressWidth is the number of cells of a rendered progress bar.
const progressWidth = 20

// Render draws root as terminal text. Width bounds wrapped paragraphs and
// the surrounding box; zero disables wrapping and the box.
func (s *Styles) Render(root *dom.Element, width int) string {
	if root == nil {
		return ""
	}
	inner := width
	if width > 0 {
		// Border and padding take two cells on each side.
		inner = max(width-4, 10)
	}
	lines := s.block(root, inner)
	if width <= 0 {
		return strings.Join(lines, "\n")
	}
	return s.Box.Width(width - 2).Render(fit(lines, inner))
}

// fit truncates every physical line to width cells.
func fit(lines []string, width int) string {
	var out []string
	for _, l := range lines {
		for _, row := range strings.Split(l, "\n") {
			out = append(out, util.TruncateWidth(row, width))
		}
	}
	return strings.Join(out, "\n")
}

func (s *Styles) block(el *dom.Element, width int) []string {
	if el.HasAttr("hidden") {
		return nil
	}

	switch {
	case el.HasClass("loader"):
		return []string{s.loader(el)}
	case el.HasClass("alert") || el.HasClass("error"):
		return []string{s.Error.Render("✗ " + collapse(el.Text()))}
	case el.Tag() == "ol" && el.HasClass("breadcrumb"):
		return []string{s.breadcrumb(el)}
	}

	switch el.Tag() {
	case "h1", "h2":
		return []string{s.Title.Render(collapse(el.Text()))}
	case "h3", "h4", "h5", "h6", "th":
		return []string{s.Heading.Render(collapse(el.Text()))}
	case "p":
		return []string{s.paragraph(el, width)}
	case "a":
		return []string{s.link(el)}
	case "ul", "ol":
		return s.list(el, width, 0)
	case "table":
		return s.table(el)
	case "progress":
		return []string{s.progress(el)}
	case "hr":
		return []string{s.Muted.Render(strings.Repeat("─", max(width, progressWidth)))}
	case "script", "style", "template":
		return nil
	}

	children := el.Children()
	if len(children) == 0 {
		if text := collapse(el.Text()); text != "" {
			return []string{s.Text.Render(text)}
		}
		return nil
	}
	var lines []string
	for _, c := range children {
		lines = append(lines, s.block(c, width)...)
	}
	return lines
}

func (s *Styles) paragraph(el *dom.Element, width int) string {
	st := s.Text
	if width > 0 {
		st = st.Width(width)
	}
	return st.Render(collapse(el.Text()))
}

func (s *Styles) link(el *dom.Element) string {
	text := collapse(el.Text())
	if el.HasClass("active") || el.GetAttribute("aria-current") == "page" {
		return s.Active.Render("▸ " + text)
	}
	return s.Link.Render(text)
}

func (s *Styles) list(el *dom.Element, width, depth int) []string {
	indent := strings.Repeat("  ", depth)
	var lines []string
	n := 0
	for _, li := range el.Children() {
		if li.Tag() != "li" || li.HasAttr("hidden") {
			continue
		}
		n++
		marker := "• "
		if el.Tag() == "ol" {
			marker = strconv.Itoa(n) + ". "
		}

		var label []string
		var nested []string
		children := li.Children()
		for _, c := range children {
			if c.Tag() == "ul" || c.Tag() == "ol" {
				nested = append(nested, s.list(c, width, depth+1)...)
				continue
			}
			label = append(label, s.block(c, width)...)
		}
		if len(children) == 0 {
			label = []string{s.Text.Render(collapse(li.Text()))}
		}
		lines = append(lines, indent+marker+strings.Join(label, " "))
		lines = append(lines, nested...)
	}
	return lines
}

func (s *Styles) table(el *dom.Element) []string {
	var lines []string
	for _, tr := range el.QueryAll("tr") {
		var cells []string
		header := false
		for _, cell := range tr.Children() {
			switch cell.Tag() {
			case "th":
				header = true
				cells = append(cells, collapse(cell.Text()))
			case "td":
				cells = append(cells, collapse(cell.Text()))
			}
		}
		row := strings.Join(cells, " │ ")
		if header {
			row = s.Heading.Render(row)
		} else {
			row = s.Text.Render(row)
		}
		lines = append(lines, row)
	}
	return lines
}

func (s *Styles) breadcrumb(el *dom.Element) string {
	var parts []string
	for _, li := range el.Children() {
		text := collapse(li.Text())
		switch {
		case li.HasClass("separator"):
			parts = append(parts, s.Muted.Render(text))
		case li.HasClass("active"):
			parts = append(parts, s.Active.Render(text))
		default:
			parts = append(parts, s.Link.Render(text))
		}
	}
	return strings.Join(parts, " ")
}

func (s *Styles) loader(el *dom.Element) string {
	msg := "Loading…"
	if m := el.Query(".loader-message"); m != nil {
		if text := collapse(m.Text()); text != "" {
			msg = text
		}
	}
	line := s.Warning.Render("⟳ " + msg)
	if p := el.Query("progress"); p != nil {
		line += " " + s.progress(p)
	}
	return line
}

func (s *Styles) progress(el *dom.Element) string {
	value, err := strconv.ParseFloat(el.GetAttribute("value"), 64)
	if err != nil {
		return s.Muted.Render("[" + strings.Repeat("·", progressWidth) + "]")
	}
	total := 1.0
	if m, err := strconv.ParseFloat(el.GetAttribute("max"), 64); err == nil && m > 0 {
		total = m
	}
	frac := min(max(value/total, 0), 1)
	filled := int(frac * progressWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)
	return s.Muted.Render(fmt.Sprintf("[%s] %3.0f%%", bar, frac*100))
}

// collapse trims text and folds runs of whitespace into single spaces.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
