package tui

import "strings"

type Option func(*Model)

// WithTheme selects the startup palette ("dark" or "light").
func WithTheme(name string) Option {
	return func(m *Model) {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case themeLight:
			m.theme = themeLight
		case themeDark:
			m.theme = themeDark
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithActivityLimit bounds how many change events the activity modal requests.
func WithActivityLimit(limit int) Option {
	return func(m *Model) {
		if limit > 0 {
			m.activityLimit = limit
		}
	}
}
