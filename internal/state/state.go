package state

import (
	"path/filepath"
	"strings"

	"dupsweep/internal/config"
	"dupsweep/internal/domain"
	"dupsweep/internal/services"
)

type Preferences struct {
	Keep  domain.KeepPolicy
	Theme string
}

// State is what the review screen shows: the duplicate groups of one scan,
// each ordered so its first member is the file that stays.
type State struct {
	Path        string
	Action      services.Action
	Groups      []domain.DuplicateGroup
	Cursor      int
	Expanded    map[int]bool
	Prefs       Preferences
	SearchQuery string
}

func NewState(cfg config.Config) *State {
	return &State{
		Path: cfg.Path,
		Action: services.Action{
			Type:        cfg.Action,
			Destination: cfg.Destination,
		},
		Expanded: make(map[int]bool),
		Prefs: Preferences{
			Keep:  cfg.Keep,
			Theme: cfg.Theme,
		},
	}
}

func (appState *State) SetGroups(groups []domain.DuplicateGroup) {
	appState.Groups = make([]domain.DuplicateGroup, len(groups))
	for i, group := range groups {
		appState.Groups[i] = services.Reorder(group, appState.Prefs.Keep)
	}
	appState.Cursor = 0
	appState.Expanded = make(map[int]bool, len(groups))
	for i := range appState.Groups {
		appState.Expanded[i] = true
	}
}

// VisibleRow is one line of the review list: a group header when Member is
// -1, otherwise one member of the group.
type VisibleRow struct {
	Group  int
	Member int
}

func (row VisibleRow) IsHeader() bool {
	return row.Member < 0
}

func (appState *State) VisibleRows() []VisibleRow {
	rows := make([]VisibleRow, 0, len(appState.Groups))
	for i, group := range appState.Groups {
		if !appState.groupMatches(group) {
			continue
		}
		rows = append(rows, VisibleRow{Group: i, Member: -1})
		if !appState.Expanded[i] {
			continue
		}
		for j := range group.Members {
			rows = append(rows, VisibleRow{Group: i, Member: j})
		}
	}
	return rows
}

func (appState *State) CurrentRow() (VisibleRow, bool) {
	rows := appState.VisibleRows()
	if len(rows) == 0 || appState.Cursor < 0 || appState.Cursor >= len(rows) {
		return VisibleRow{}, false
	}
	return rows[appState.Cursor], true
}

func (appState *State) CurrentGroup() *domain.DuplicateGroup {
	row, ok := appState.CurrentRow()
	if !ok {
		return nil
	}
	return &appState.Groups[row.Group]
}

func (appState *State) ToggleExpanded(group int) bool {
	if group < 0 || group >= len(appState.Groups) {
		return false
	}
	appState.Expanded[group] = !appState.Expanded[group]
	return appState.Expanded[group]
}

func (appState *State) IsExpanded(group int) bool {
	return appState.Expanded[group]
}

// Summary counts the groups, the files that would be acted on and the bytes
// they occupy. Every member after the first counts.
func (appState *State) Summary() (groups int, files int, reclaimable uint64) {
	for _, group := range appState.Groups {
		if len(group.Members) < 2 {
			continue
		}
		groups++
		files += len(group.Members) - 1
		reclaimable += group.Size * uint64(len(group.Members)-1)
	}
	return groups, files, reclaimable
}

// ClearFilters resets the search.
func (appState *State) ClearFilters() {
	appState.SearchQuery = ""
	appState.Cursor = 0
}

func (appState *State) groupMatches(group domain.DuplicateGroup) bool {
	if appState.SearchQuery == "" {
		return true
	}
	query := strings.ToLower(appState.SearchQuery)
	for _, member := range group.Members {
		if strings.Contains(strings.ToLower(filepath.Base(member.Path())), query) {
			return true
		}
	}
	return false
}
