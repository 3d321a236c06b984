package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"dupsweep/internal/domain"
	"dupsweep/internal/state"
)

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	keepStyle   lipgloss.Style
	panelBorder lipgloss.Style
}

func stylesFor(model Model) uiStyles {
	if strings.ToLower(model.state.Prefs.Theme) == "light" {
		return uiStyles{
			headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			keepStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
			panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		keepStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	styles := stylesFor(model)
	if model.showHelp {
		return renderHelpView(model, styles)
	}

	body := renderBody(model, styles)
	footer := renderFooter(model, styles)
	return strings.Join([]string{body, footer}, "\n")
}

func renderBody(model Model, styles uiStyles) string {
	visible := model.state.VisibleRows()
	bodyHeight := model.listHeight()
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	leftWidth, rightWidth, showRight := splitPanels(model.width)
	left := renderGroupPanel(model, styles, visible, bodyHeight, leftWidth)
	if !showRight {
		return left
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	right := renderDetailPanel(model, styles, rightWidth, bodyHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

func renderFooter(model Model, styles uiStyles) string {
	statusLine := trimStatus(model.status, model.width)
	if model.scanning {
		statusLine = fmt.Sprintf("%s  %s", statusLine, progressBar(model.lastProgress.Processed, int64(model.lastProgress.Candidates), model.progressCount, 18))
	}
	statusStyle := styles.mutedStyle
	lower := strings.ToLower(model.status)
	if strings.Contains(lower, "error") || strings.Contains(lower, "warning") {
		statusStyle = styles.warnStyle
	}
	if model.confirming {
		statusStyle = styles.statusStyle
	}
	statusLine = statusStyle.Render(statusLine)

	groups, files, reclaimable := model.state.Summary()
	left := fmt.Sprintf("Groups: %d  Files: %d  Reclaimable: %s  Keep: %s", groups, files, humanize.IBytes(reclaimable), model.state.Prefs.Keep)
	if model.state.SearchQuery != "" {
		left += fmt.Sprintf("  Search[%s]", model.state.SearchQuery)
	}
	keys := "↑/↓ move  enter expand  / search  x clear  a apply  ? help  q quit"
	if model.confirming {
		keys = "y confirm  n cancel"
	}
	if model.searching {
		keys = "type query  enter confirm  esc cancel"
	}
	footerLine := padLine(left, keys, model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderGroupPanel(model Model, styles uiStyles, visible []state.VisibleRow, height, width int) string {
	if width < 20 {
		width = 20
	}
	contentWidth := maxInt(width-2, 10)
	status := "REVIEW"
	switch {
	case model.scanning:
		status = "SCANNING"
	case model.applying:
		status = "APPLYING"
	case model.applied:
		status = "DONE"
	}
	headerLine := padLine(styles.headerStyle.Render("dupsweep")+"  "+breadcrumbs(model.request.RootPath), styles.statusStyle.Render(status), contentWidth)
	listHeight := maxInt(height-1, 1)
	if len(visible) == 0 {
		message := "No duplicate groups"
		if model.scanning {
			message = "Scanning..."
		}
		lines := []string{headerLine, message}
		for i := 0; i < maxInt(listHeight-1, 0); i++ {
			lines = append(lines, "")
		}
		return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
	}
	start := clamp(model.viewTop, 0, maxInt(len(visible)-1, 0))
	end := start + listHeight
	if end > len(visible) {
		end = len(visible)
	}

	lines := make([]string, 0, height)
	lines = append(lines, headerLine)
	for index := start; index < end; index++ {
		row := visible[index]
		group := model.state.Groups[row.Group]
		var line string
		if row.IsHeader() {
			icon := "▸"
			if model.state.IsExpanded(row.Group) {
				icon = "▾"
			}
			line = fmt.Sprintf("%s group %d  %d files @ %s  %s", icon, row.Group+1, len(group.Members), humanize.IBytes(group.Size), shortDigest(group.Digest))
		} else {
			line = "    " + memberLine(model, styles, group, row.Member)
		}
		if index == model.state.Cursor {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

func memberLine(model Model, styles uiStyles, group domain.DuplicateGroup, member int) string {
	path := group.Members[member].Path()
	if member == 0 {
		return styles.keepStyle.Render("keep") + "  " + path
	}
	verb := "dupe"
	switch model.state.Action.Type {
	case domain.ActionMove:
		verb = "move"
	case domain.ActionDelete:
		verb = "del "
	}
	return verb + "  " + path
}

func renderDetailPanel(model Model, styles uiStyles, width, height int) string {
	if model.confirming {
		return renderConfirmPanel(model, styles, width, height)
	}
	contentWidth := maxInt(width-2, 10)
	group := model.state.CurrentGroup()
	if group == nil {
		return styles.panelBorder.Width(contentWidth).Render("No selection")
	}
	lines := []string{
		styles.headerStyle.Render("Digest"),
		shortDigest(group.Digest),
		"",
		styles.headerStyle.Render("Size"),
		fmt.Sprintf("Each : %s", humanize.IBytes(group.Size)),
		fmt.Sprintf("Extra: %s", humanize.IBytes(group.Size*uint64(len(group.Members)-1))),
		"",
		styles.headerStyle.Render("Keeping"),
		group.Members[0].Path(),
	}
	if row, ok := model.state.CurrentRow(); ok && !row.IsHeader() {
		record := group.Members[row.Member].Sample.Record
		lines = append(lines, "", styles.headerStyle.Render("Created"), record.CreatedAt.Format(time.RFC822))
		if group.Size > uint64(len(group.Members[row.Member].Sample.Bytes)) {
			lines = append(lines, "", styles.mutedStyle.Render("Compared on the first "+humanize.IBytes(uint64(len(group.Members[row.Member].Sample.Bytes)))))
		}
	}

	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(height).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderConfirmPanel(model Model, styles uiStyles, width, height int) string {
	groups, files, reclaimable := model.state.Summary()
	action := model.state.Action
	lines := []string{
		styles.headerStyle.Render("Action Preview"),
		fmt.Sprintf("Type  : %s", strings.ToUpper(string(action.Type))),
		fmt.Sprintf("Groups: %d", groups),
		fmt.Sprintf("Files : %d", files),
		fmt.Sprintf("Size  : %s", humanize.IBytes(reclaimable)),
		fmt.Sprintf("Keep  : %s", model.state.Prefs.Keep),
	}
	if action.Destination != "" && action.Type == domain.ActionMove {
		lines = append(lines, fmt.Sprintf("Dest  : %s", action.Destination))
	}
	if action.Type == domain.ActionDelete {
		lines = append(lines, "", styles.warnStyle.Render("Delete is not supported"))
	}
	lines = append(lines, "", "y confirm  n cancel")
	contentWidth := maxInt(width-2, 10)
	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(height).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderHelpView(model Model, styles uiStyles) string {
	bindings := []key.Binding{
		model.keys.Up,
		model.keys.Down,
		model.keys.Toggle,
		model.keys.Search,
		model.keys.ClearFilter,
		model.keys.Apply,
		model.keys.Confirm,
		model.keys.Cancel,
		model.keys.Help,
		model.keys.Quit,
	}

	lines := []string{styles.headerStyle.Render("dupsweep Help"), ""}
	lines = append(lines, styles.headerStyle.Render("Review"))
	lines = append(lines, "the first file of every group is kept", "the others are reported or moved")
	lines = append(lines, "", styles.headerStyle.Render("Safety"))
	lines = append(lines, "nothing changes until you confirm with y", "moves never overwrite existing files")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range bindings {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-18s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	content := strings.Join(lines, "\n")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(content)
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func breadcrumbs(path string) string {
	path = filepath.Clean(path)
	if path == "." {
		return "."
	}
	parts := strings.Split(path, string(filepath.Separator))
	if parts[0] == "" {
		parts[0] = string(filepath.Separator)
	}
	return strings.Join(parts, " › ")
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := int(float64(width) * 0.6)
	if left < 40 {
		left = 40
	}
	right := width - left - 1
	if right < 30 {
		return width, 0, false
	}
	return left, right, true
}

// progressBar fills in proportion to done/total, or cycles on count while
// the total is unknown.
func progressBar(done, total, count int64, width int) string {
	if width <= 0 {
		return ""
	}
	pos := int(count % int64(width))
	if total > 0 {
		pos = int(done * int64(width) / total)
		if pos > width {
			pos = width
		}
	}
	filled := strings.Repeat("█", pos)
	gap := strings.Repeat("░", width-pos)
	return fmt.Sprintf("[%s%s]", filled, gap)
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
