package tui

import (
	"fmt"
	"strings"

	"github.com/capfei/crawler/internal/entry"
)

const (
	colGap       = 2
	dateColWidth = 10 // YYYY-MM-DD
	minPathWidth = 10
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.harvest == nil {
		return "Loading..."
	}

	var b strings.Builder
	headerLines := 0

	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
		headerLines++
	}

	// Header
	writeLine(titleStyle.Render("crawler - Fileset Browser"))

	harvestInfo := fmt.Sprintf("Harvest: %s | Files: %s | Size: %s",
		m.harvest.StartTime.Format("2006-01-02 15:04"),
		FormatCount(m.harvest.FileCount),
		FormatSize(m.harvest.TotalSize),
	)
	if m.harvest.ReleaseDate != nil {
		harvestInfo += " | Released: " + releaseStyle.Render(FormatDate(*m.harvest.ReleaseDate))
	}
	writeLine(statsStyle.Render(harvestInfo))

	// Breadcrumbs / prefix
	location := "/"
	if m.prefix != "" {
		location = m.prefix
	}
	writeLine(breadcrumbStyle.Render(fmt.Sprintf("Prefix: %s", truncateMiddle(location, max(10, m.width-8)))))

	// Status line
	status := fmt.Sprintf("Items: %s", FormatCount(int64(len(m.records))))
	if m.filter != "" {
		status += fmt.Sprintf(" | Filter: %q", m.filter)
	}
	if len(m.records) > 0 && m.cursor < len(m.records) {
		sel := m.records[m.cursor]
		status += fmt.Sprintf(" | Sel: %s (%s)", sel.Name, FormatSize(sel.Size))
	}
	writeLine(statusStyle.Render(status))

	// Filter input
	if m.filterActive {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s_", m.filter)))
	} else if m.filter != "" {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s", m.filter)))
	}

	// Column headers with sort indicator
	sizeLabel := headerLabel("SIZE", m.sort == SortBySize, "v")
	dateLabel := headerLabel("MODIFIED", m.sort == SortByDate, "v")
	pathLabel := headerLabel("PATH", m.sort == SortByPath || m.sort == SortByName, "^")

	// Calculate visible rows
	footerLines := 2
	visibleRows := m.height - headerLines - footerLines
	if visibleRows < 5 {
		visibleRows = 5
	}

	// Determine scroll offset
	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := min(len(m.records), startIdx+visibleRows)

	sizeWidth := calcSizeWidth(m.records, startIdx, endIdx, sizeLabel)
	pathWidth := calcPathWidth(m.width, sizeWidth)
	gap := strings.Repeat(" ", colGap)

	header := fmt.Sprintf("%*s%s%-*s%s%s",
		sizeWidth, sizeLabel,
		gap,
		dateColWidth, dateLabel,
		gap,
		truncateRight(pathLabel, pathWidth),
	)
	writeLine(headerStyle.Render(header))

	// Records
	for i := startIdx; i < endIdx; i++ {
		b.WriteString(m.formatRecord(m.records[i], i == m.cursor, sizeWidth, pathWidth))
		b.WriteString("\n")
	}

	// Pad if needed
	displayedRows := min(len(m.records)-startIdx, visibleRows)
	for i := displayedRows; i < visibleRows; i++ {
		b.WriteString("\n")
	}

	// Footer
	b.WriteString("\n")
	help := m.helpLine()
	if len(m.records) > 0 {
		help = fmt.Sprintf("%s [%d/%d]", help, m.cursor+1, len(m.records))
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) formatRecord(r entry.FileRecord, selected bool, sizeWidth, pathWidth int) string {
	size := ""
	if r.Kind == entry.KindFile {
		size = FormatSize(r.Size)
	}

	var rawPath string
	switch r.Kind {
	case entry.KindDir:
		rawPath = r.Path + "/"
	case entry.KindSymlink:
		rawPath = r.Path + "@"
	default:
		rawPath = r.Path
	}
	rawPath = truncateRight(rawPath, pathWidth)

	gap := strings.Repeat(" ", colGap)
	line := fmt.Sprintf("%*s%s%-*s%s%s",
		sizeWidth, size,
		gap,
		dateColWidth, FormatDate(r.ModTime),
		gap,
		rawPath,
	)

	if selected {
		return selectedStyle.Render(line)
	}

	switch r.Kind {
	case entry.KindDir:
		return dirStyle.Render(line)
	case entry.KindSymlink:
		return symlinkStyle.Render(line)
	default:
		return fileStyle.Render(line)
	}
}

func calcSizeWidth(records []entry.FileRecord, startIdx, endIdx int, label string) int {
	w := len(label)
	for i := startIdx; i < endIdx; i++ {
		if n := len(FormatSize(records[i].Size)); n > w {
			w = n
		}
	}
	return w
}

func calcPathWidth(totalWidth, sizeWidth int) int {
	used := sizeWidth + dateColWidth + colGap*2
	pathWidth := totalWidth - used
	if pathWidth < minPathWidth {
		pathWidth = minPathWidth
	}
	return pathWidth
}

func headerLabel(label string, active bool, dir string) string {
	if active {
		return label + dir
	}
	return label
}

func truncateRight(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func truncateMiddle(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}
