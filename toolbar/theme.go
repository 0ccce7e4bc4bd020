package toolbar

import (
	"fmt"
	"strings"
)

// Theme is the toolbar colour theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name. An empty name yields ThemeLight.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("toolbar: unknown theme %q", s)
}

// Palette is the concrete styling of a theme.
type Palette struct {
	Background  string `json:"background"`
	Foreground  string `json:"foreground"`
	Border      string `json:"border"`
	Primary     string `json:"primary"`
	PrimaryText string `json:"primary_text"`
	HoverButton string `json:"hover_button"`
	Success     string `json:"success"`
	Danger      string `json:"danger"`
	Shadow      string `json:"shadow"`
}

var palettes = map[Theme]Palette{
	ThemeLight: {
		Background:  "#ffffff",
		Foreground:  "#1f2937",
		Border:      "#e5e7eb",
		Primary:     "#2563eb",
		PrimaryText: "#ffffff",
		HoverButton: "#f3f4f6",
		Success:     "#16a34a",
		Danger:      "#dc2626",
		Shadow:      "0 4px 12px rgba(0,0,0,0.15)",
	},
	ThemeDark: {
		Background:  "#1f2937",
		Foreground:  "#f9fafb",
		Border:      "#374151",
		Primary:     "#3b82f6",
		PrimaryText: "#ffffff",
		HoverButton: "#374151",
		Success:     "#22c55e",
		Danger:      "#ef4444",
		Shadow:      "0 4px 12px rgba(0,0,0,0.45)",
	},
}

// Palette returns the styling of t, falling back to the light theme.
func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeLight]
}

// ColorScheme names the highlight colours used on picked elements.
type ColorScheme string

const (
	ColorClassic      ColorScheme = "classic"
	ColorElegant      ColorScheme = "elegant"
	ColorProfessional ColorScheme = "professional"
	ColorWarm         ColorScheme = "warm"
	ColorModern       ColorScheme = "modern"
	ColorNeutral      ColorScheme = "neutral"
)

type schemeColors struct {
	outline    string
	background string
}

var schemes = map[ColorScheme]schemeColors{
	ColorClassic:      {"#4caf50", "rgba(76, 175, 80, 0.08)"},
	ColorElegant:      {"#10b981", "rgba(16, 185, 129, 0.08)"},
	ColorProfessional: {"#3b82f6", "rgba(59, 130, 246, 0.08)"},
	ColorWarm:         {"#f59e0b", "rgba(245, 158, 11, 0.08)"},
	ColorModern:       {"#8b5cf6", "rgba(139, 92, 246, 0.08)"},
	ColorNeutral:      {"#6b7280", "rgba(107, 114, 128, 0.06)"},
}

// ParseColorScheme validates a scheme name. An empty name yields
// ColorElegant.
func ParseColorScheme(s string) (ColorScheme, error) {
	c := ColorScheme(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return ColorElegant, nil
	}
	if _, ok := schemes[c]; !ok {
		return "", fmt.Errorf("toolbar: unknown selection color %q", s)
	}
	return c, nil
}

// Highlight is the set of inline style properties applied to a picked
// element. Empty values remove the property.
type Highlight map[string]string

const highlightTransition = "outline 0.12s ease, background-color 0.12s ease"

// Hover returns the highlight for the element under the pointer.
func (c ColorScheme) Hover() Highlight {
	sc := c.colors()
	return Highlight{
		"outline":    "2px solid " + sc.outline,
		"cursor":     "pointer",
		"transition": highlightTransition,
	}
}

// Selected returns the stronger highlight for the confirmed element.
func (c ColorScheme) Selected() Highlight {
	sc := c.colors()
	return Highlight{
		"outline":          "3px solid " + sc.outline,
		"background-color": sc.background,
		"cursor":           "default",
		"transition":       highlightTransition,
	}
}

func (c ColorScheme) colors() schemeColors {
	if sc, ok := schemes[c]; ok {
		return sc
	}
	return schemes[ColorElegant]
}
