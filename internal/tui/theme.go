package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

const (
	themeDark  = "dark"
	themeLight = "light"
)

// palette groups the colors one theme renders with.
type palette struct {
	accent   color.Color
	text     color.Color
	muted    color.Color
	dim      color.Color
	selected color.Color
	dragging color.Color
	danger   color.Color
}

func paletteFor(theme string) palette {
	if theme == themeLight {
		return palette{
			accent:   lipgloss.Color("25"),
			text:     lipgloss.Color("235"),
			muted:    lipgloss.Color("244"),
			dim:      lipgloss.Color("250"),
			selected: lipgloss.Color("127"),
			dragging: lipgloss.Color("166"),
			danger:   lipgloss.Color("160"),
		}
	}
	return palette{
		accent:   lipgloss.Color("62"),
		text:     lipgloss.Color("252"),
		muted:    lipgloss.Color("241"),
		dim:      lipgloss.Color("239"),
		selected: lipgloss.Color("212"),
		dragging: lipgloss.Color("214"),
		danger:   lipgloss.Color("203"),
	}
}

// nextTheme returns the theme a toggle switches to.
func nextTheme(theme string) string {
	if theme == themeLight {
		return themeDark
	}
	return themeLight
}

// themeToggleLabel names the theme the toggle will switch to.
func themeToggleLabel(theme string) string {
	if theme == themeLight {
		return "Dark Theme"
	}
	return "Light Theme"
}
