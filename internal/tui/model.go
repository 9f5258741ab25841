package tui

import (
	"database/sql"
	"strings"

	"github.com/capfei/crawler/internal/db"
	"github.com/capfei/crawler/internal/entry"

	tea "github.com/charmbracelet/bubbletea"
)

const loadLimit = 5000

// SortColumn represents the current sort field.
type SortColumn int

const (
	SortByPath SortColumn = iota
	SortBySize
	SortByDate
	SortByName
)

func (s SortColumn) String() string {
	switch s {
	case SortBySize:
		return "size"
	case SortByDate:
		return "date"
	case SortByName:
		return "name"
	default:
		return "path"
	}
}

// Model holds the TUI state.
type Model struct {
	db           *sql.DB
	harvest      *entry.Harvest
	prefix       string
	allRecords   []entry.FileRecord
	records      []entry.FileRecord
	cursor       int
	sort         SortColumn
	width        int
	height       int
	filter       string
	filterActive bool
	err          error
}

// NewModel creates a new TUI model.
func NewModel(database *sql.DB) *Model {
	return &Model{
		db:   database,
		sort: SortByPath,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadInitialData
}

type dataLoadedMsg struct {
	harvest *entry.Harvest
	records []entry.FileRecord
	err     error
}

func (m *Model) loadInitialData() tea.Msg {
	harvest, err := db.GetHarvest(m.db)
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	records, err := db.ListFiles(m.db, "", m.sort.String(), loadLimit)
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	return dataLoadedMsg{
		harvest: harvest,
		records: records,
	}
}

type recordsLoadedMsg struct {
	prefix  string
	records []entry.FileRecord
	err     error
}

func (m *Model) loadRecords(prefix string) tea.Cmd {
	return func() tea.Msg {
		records, err := db.ListFiles(m.db, prefix, m.sort.String(), loadLimit)
		if err != nil {
			return recordsLoadedMsg{err: err}
		}
		return recordsLoadedMsg{prefix: prefix, records: records}
	}
}

func (m *Model) helpLine() string {
	if m.filterActive {
		return "Type to filter | Enter: apply | Esc: clear | q: quit"
	}
	return "↑/↓ move | Enter: open dir | Backspace: up | p/s/d/n: sort | /: filter | q: quit"
}

func (m *Model) setRecords(records []entry.FileRecord) {
	m.allRecords = records
	m.applyFilter()
}

func (m *Model) applyFilter() {
	if m.filter == "" {
		m.records = m.allRecords
	} else {
		filtered := make([]entry.FileRecord, 0, len(m.allRecords))
		needle := strings.ToLower(m.filter)
		for _, r := range m.allRecords {
			if strings.Contains(strings.ToLower(r.Path), needle) {
				filtered = append(filtered, r)
			}
		}
		m.records = filtered
	}
	m.cursor = 0
}
