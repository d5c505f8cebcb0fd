// Package styles renders documents to the terminal using lipgloss themes.
package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault        ThemeName = "default"         // Purple/green dark theme
	ThemeDracula        ThemeName = "dracula"         // Dracula theme colors
	ThemeNord           ThemeName = "nord"            // Nord theme - cool blue-gray
	ThemeMonokai        ThemeName = "monokai"         // Classic Monokai editor colors
	ThemeSolarizedLight ThemeName = "solarized-light" // Solarized Light variant
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{
		string(ThemeDefault),
		string(ThemeDracula),
		string(ThemeNord),
		string(ThemeMonokai),
		string(ThemeSolarizedLight),
	}
}

// IsBuiltinTheme checks if a theme name is a built-in theme.
func IsBuiltinTheme(name string) bool {
	return slices.Contains(BuiltinThemes(), name)
}

// ColorPalette defines the color scheme for a theme.
type ColorPalette struct {
	// Primary accent color (headings, active navigation)
	Primary lipgloss.Color
	// Secondary accent color (links, success states)
	Secondary lipgloss.Color
	// Warning color (loaders, attention-needed states)
	Warning lipgloss.Color
	// Error color (alerts, failures)
	Error lipgloss.Color
	// Muted color (separators, de-emphasized text)
	Muted lipgloss.Color
	// Text is the body text color
	Text lipgloss.Color
	// Border color for boxes and rules
	Border lipgloss.Color
}

var palettes = map[ThemeName]*ColorPalette{
	ThemeDefault: {
		Primary:   lipgloss.Color("#A78BFA"),
		Secondary: lipgloss.Color("#10B981"),
		Warning:   lipgloss.Color("#F59E0B"),
		Error:     lipgloss.Color("#F87171"),
		Muted:     lipgloss.Color("#9CA3AF"),
		Text:      lipgloss.Color("#F9FAFB"),
		Border:    lipgloss.Color("#4B5563"),
	},
	ThemeDracula: {
		Primary:   lipgloss.Color("#BD93F9"),
		Secondary: lipgloss.Color("#50FA7B"),
		Warning:   lipgloss.Color("#F1FA8C"),
		Error:     lipgloss.Color("#FF5555"),
		Muted:     lipgloss.Color("#6272A4"),
		Text:      lipgloss.Color("#F8F8F2"),
		Border:    lipgloss.Color("#44475A"),
	},
	ThemeNord: {
		Primary:   lipgloss.Color("#88C0D0"),
		Secondary: lipgloss.Color("#A3BE8C"),
		Warning:   lipgloss.Color("#EBCB8B"),
		Error:     lipgloss.Color("#BF616A"),
		Muted:     lipgloss.Color("#7B88A1"),
		Text:      lipgloss.Color("#ECEFF4"),
		Border:    lipgloss.Color("#4C566A"),
	},
	ThemeMonokai: {
		Primary:   lipgloss.Color("#F92672"),
		Secondary: lipgloss.Color("#A6E22E"),
		Warning:   lipgloss.Color("#E6DB74"),
		Error:     lipgloss.Color("#F92672"),
		Muted:     lipgloss.Color("#75715E"),
		Text:      lipgloss.Color("#F8F8F2"),
		Border:    lipgloss.Color("#49483E"),
	},
	ThemeSolarizedLight: {
		Primary:   lipgloss.Color("#268BD2"),
		Secondary: lipgloss.Color("#859900"),
		Warning:   lipgloss.Color("#B58900"),
		Error:     lipgloss.Color("#DC322F"),
		Muted:     lipgloss.Color("#93A1A1"),
		Text:      lipgloss.Color("#073642"),
		Border:    lipgloss.Color("#EEE8D5"),
	},
}

// GetPalette returns the palette of a built-in theme, falling back to the
// default theme for unknown names.
func GetPalette(name ThemeName) *ColorPalette {
	if p, ok := palettes[name]; ok {
		cp := *p
		return &cp
	}
	cp := *palettes[ThemeDefault]
	return &cp
}
