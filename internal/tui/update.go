package tui

import (
	"strings"

	"github.com/capfei/crawler/internal/entry"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.harvest = msg.harvest
		m.prefix = ""
		m.filter = ""
		m.filterActive = false
		m.setRecords(msg.records)
		return m, nil

	case recordsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.prefix = msg.prefix
		m.filter = ""
		m.filterActive = false
		m.setRecords(msg.records)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		switch msg.String() {
		case "enter":
			m.filterActive = false
			return m, nil

		case "esc":
			m.filterActive = false
			m.filter = ""
			m.applyFilter()
			return m, nil

		case "backspace":
			if len(m.filter) > 0 {
				runes := []rune(m.filter)
				m.filter = string(runes[:len(runes)-1])
				m.applyFilter()
			}
			return m, nil

		case "q", "ctrl+c":
			return m, tea.Quit
		}

		if msg.Type == tea.KeyRunes {
			m.filter += msg.String()
			m.applyFilter()
			return m, nil
		}

		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
		return m, nil

	case "enter", "l", "right":
		if len(m.records) > 0 && m.cursor < len(m.records) {
			selected := m.records[m.cursor]
			if selected.Kind == entry.KindDir {
				return m, m.loadRecords(selected.Path + "/")
			}
		}
		return m, nil

	case "backspace", "h", "left":
		if m.prefix != "" {
			return m, m.loadRecords(parentPrefix(m.prefix))
		}
		return m, nil

	case "p":
		m.sort = SortByPath
		return m, m.loadRecords(m.prefix)

	case "s":
		m.sort = SortBySize
		return m, m.loadRecords(m.prefix)

	case "d":
		m.sort = SortByDate
		return m, m.loadRecords(m.prefix)

	case "n":
		m.sort = SortByName
		return m, m.loadRecords(m.prefix)

	case "/":
		m.filterActive = true
		return m, nil

	case "home", "g":
		m.cursor = 0
		return m, nil

	case "end", "G":
		if len(m.records) > 0 {
			m.cursor = len(m.records) - 1
		}
		return m, nil

	case "pgup":
		m.cursor -= 10
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case "pgdown":
		m.cursor += 10
		if m.cursor >= len(m.records) {
			m.cursor = len(m.records) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil
	}

	return m, nil
}

// parentPrefix pops the last segment off a drill-down prefix:
// "src/nested/" becomes "src/", and "src/" becomes "".
func parentPrefix(prefix string) string {
	trimmed := strings.TrimSuffix(prefix, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}
