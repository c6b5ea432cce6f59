package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds optional key overrides. Blank fields keep the default binding.
type KeyConfig struct {
	AddTask     string
	EditTask    string
	RemoveTask  string
	Grab        string
	TaskInfo    string
	CopyTask    string
	ToggleTheme string
	ActivityLog string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	reload      key.Binding
	toggleHelp  key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	addTask     key.Binding
	editTask    key.Binding
	removeTask  key.Binding
	grab        key.Binding
	taskInfo    key.Binding
	copyTask    key.Binding
	toggleTheme key.Binding
	activityLog key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add task")),
		editTask:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		removeTask:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove task")),
		grab:        key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "grab/drop")),
		taskInfo:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		copyTask:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		toggleTheme: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle theme")),
		activityLog: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "activity log")),
	}
}

// applyConfig applies configured overrides on top of the defaults.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.addTask, cfg.AddTask, "n", "add task")
	configureBinding(&k.editTask, cfg.EditTask, "e", "edit task")
	configureBinding(&k.removeTask, cfg.RemoveTask, "x", "remove task")
	configureBinding(&k.grab, cfg.Grab, "space", "grab/drop")
	configureBinding(&k.taskInfo, cfg.TaskInfo, "i", "task info")
	configureBinding(&k.copyTask, cfg.CopyTask, "y", "copy task")
	configureBinding(&k.toggleTheme, cfg.ToggleTheme, "t", "toggle theme")
	configureBinding(&k.activityLog, cfg.ActivityLog, "a", "activity log")
}

// configureBinding replaces one binding's keys and help from a configured value.
func configureBinding(b *key.Binding, value, fallback, desc string) {
	keys, help := parseBindingKeys(value, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns one configured key into matcher keys plus its help label.
func parseBindingKeys(value, fallback string) ([]string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if strings.EqualFold(value, "space") || value == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.editTask, k.removeTask, k.grab, k.taskInfo, k.toggleTheme, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.editTask, k.removeTask, k.grab, k.taskInfo, k.copyTask},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.toggleTheme, k.activityLog, k.reload, k.toggleHelp, k.quit},
	}
}
