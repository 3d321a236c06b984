package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"dupsweep/internal/domain"
	"dupsweep/internal/services"
	"dupsweep/internal/state"
)

type Model struct {
	state         *state.State
	scanner       services.Scanner
	applier       services.Applier
	progress      services.ProgressProvider
	request       services.ScanRequest
	keys          KeyMap
	showHelp      bool
	status        string
	scanning      bool
	confirming    bool
	applying      bool
	applied       bool
	parent        context.Context
	scanCtx       context.Context
	cancel        context.CancelFunc
	width         int
	height        int
	viewTop       int
	progressCount int64
	lastProgress  services.ScanProgress
	searching     bool
	searchInput   string
	outcome       Outcome
}

// Outcome is what the review session produced. Action is nil unless the
// action was applied.
type Outcome struct {
	Scan      services.ScanResult
	ScanErr   error
	Action    *services.ActionResult
	ActionErr error
}

type OutcomeProvider interface {
	Outcome() Outcome
}

// NewModel builds a review session that scans request as soon as the
// program starts.
func NewModel(ctx context.Context, appState *state.State, scanner services.Scanner, applier services.Applier, request services.ScanRequest) Model {
	scanCtx, cancel := context.WithCancel(ctx)
	return Model{
		state:    appState,
		scanner:  scanner,
		applier:  applier,
		progress: progressProvider(scanner),
		request:  request,
		keys:     DefaultKeyMap(),
		status:   fmt.Sprintf("Scanning... %s", request.RootPath),
		scanning: true,
		parent:   ctx,
		scanCtx:  scanCtx,
		cancel:   cancel,
		width:    100,
		height:   30,
	}
}

func (model Model) Outcome() Outcome {
	return model.outcome
}

func (model Model) Init() tea.Cmd {
	return tea.Batch(model.scanCmd(model.scanCtx), model.progressCmd())
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.ensureCursorVisible()
		return model, nil
	case scanResultMsg:
		model.scanning = false
		model.cancel = nil
		model.outcome.Scan = typed.result
		model.outcome.ScanErr = typed.err
		if typed.err != nil {
			if errors.Is(typed.err, context.Canceled) {
				model.status = "Scan cancelled"
				return model, nil
			}
			model.status = fmt.Sprintf("Scan error: %v", typed.err)
			return model, nil
		}
		model.state.SetGroups(typed.result.Groups)
		model.ensureCursorVisible()
		if len(typed.result.Groups) == 0 {
			model.status = fmt.Sprintf("No duplicates found in %d files (%s)", typed.result.Files, typed.result.Duration.Round(time.Millisecond))
			return model, nil
		}
		model.confirming = true
		model.status = confirmPrompt(model.state)
		return model, nil
	case scanProgressMsg:
		if typed.progress.ErrMessage != "" {
			model.status = fmt.Sprintf("Scan warning: %s", typed.progress.ErrMessage)
			return model, model.progressCmd()
		}
		if typed.progress.Completed {
			return model, nil
		}
		model.lastProgress = typed.progress
		model.progressCount = typed.progress.Files
		model.status = progressStatus(typed.progress)
		return model, model.progressCmd()
	case actionResultMsg:
		model.applying = false
		model.applied = true
		result := typed.result
		model.outcome.Action = &result
		model.outcome.ActionErr = typed.err
		if typed.err != nil {
			model.status = fmt.Sprintf("Action error: %v", typed.err)
			return model, nil
		}
		model.status = fmt.Sprintf("%s (%d ok, %d failed) - press q to quit", result.Message, result.SuccessCount, result.FailureCount)
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		model = model.cancelScan("")
		return model, tea.Quit
	case model.searching:
		return model.handleSearchInput(msg)
	case key.Matches(msg, model.keys.Quit):
		model = model.cancelScan("")
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case model.confirming && key.Matches(msg, model.keys.Confirm):
		return model.applyAction()
	case model.confirming && key.Matches(msg, model.keys.Cancel):
		model.confirming = false
		model.status = "Action cancelled - press a to apply"
		return model, nil
	case key.Matches(msg, model.keys.Up):
		if model.state.Cursor > 0 {
			model.state.Cursor--
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.Down):
		if model.state.Cursor < len(model.state.VisibleRows())-1 {
			model.state.Cursor++
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.Toggle):
		if row, ok := model.state.CurrentRow(); ok && row.IsHeader() {
			model.state.ToggleExpanded(row.Group)
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.Search):
		model.searching = true
		model.searchInput = model.state.SearchQuery
		model.status = fmt.Sprintf("Search: %s", model.searchInput)
		return model, nil
	case key.Matches(msg, model.keys.ClearFilter):
		model.state.ClearFilters()
		model.ensureCursorVisible()
		model.status = "Search cleared"
		return model, nil
	case key.Matches(msg, model.keys.Apply):
		return model.beginAction()
	default:
		return model, nil
	}
}

func (model Model) beginAction() (tea.Model, tea.Cmd) {
	switch {
	case model.scanning:
		model.status = "Scan still running"
	case model.applying:
		model.status = "Action already running"
	case model.applied:
		model.status = "Action already applied - press q to quit"
	case len(model.state.Groups) == 0:
		model.status = "Nothing to apply"
	default:
		model.confirming = true
		model.status = confirmPrompt(model.state)
	}
	return model, nil
}

func (model Model) applyAction() (tea.Model, tea.Cmd) {
	model.confirming = false
	model.applying = true
	model.status = fmt.Sprintf("%s in progress", strings.ToUpper(string(model.state.Action.Type)))
	groups := model.outcome.Scan.Groups
	action := model.state.Action
	ctx := model.parent
	applier := model.applier
	return model, func() tea.Msg {
		result, err := applier.Apply(ctx, groups, action)
		return actionResultMsg{result: result, err: err}
	}
}

func (model Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		model.searching = false
		model.state.SearchQuery = strings.TrimSpace(model.searchInput)
		model.state.Cursor = 0
		model.ensureCursorVisible()
		model.status = fmt.Sprintf("Search: %s (%d groups shown)", model.state.SearchQuery, countHeaders(model.state.VisibleRows()))
		return model, nil
	case tea.KeyEsc:
		model.searching = false
		model.searchInput = ""
		model.status = "Search cancelled"
		return model, nil
	case tea.KeyBackspace, tea.KeyDelete:
		if model.searchInput != "" {
			runes := []rune(model.searchInput)
			model.searchInput = string(runes[:len(runes)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		model.searchInput += string(msg.Runes)
	}
	model.status = fmt.Sprintf("Search: %s", model.searchInput)
	return model, nil
}

func (model Model) scanCmd(ctx context.Context) tea.Cmd {
	scanner := model.scanner
	request := model.request
	return func() tea.Msg {
		result, err := scanner.Scan(ctx, request)
		return scanResultMsg{result: result, err: err}
	}
}

func (model Model) progressCmd() tea.Cmd {
	if model.progress == nil {
		return nil
	}
	provider := model.progress
	return func() tea.Msg {
		for {
			channel := provider.Progress()
			if channel == nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			progress, ok := <-channel
			if !ok {
				return scanProgressMsg{progress: services.ScanProgress{Completed: true}}
			}
			return scanProgressMsg{progress: progress}
		}
	}
}

func (model Model) cancelScan(message string) Model {
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	if message != "" {
		model.status = message
	}
	model.scanning = false
	model.progressCount = 0
	return model
}

func progressProvider(scanner services.Scanner) services.ProgressProvider {
	provider, _ := scanner.(services.ProgressProvider)
	return provider
}

func progressStatus(progress services.ScanProgress) string {
	switch progress.Stage {
	case services.StageWalking:
		if progress.Current != "" {
			return fmt.Sprintf("Scanning... %d files (%s)", progress.Files, progress.Current)
		}
		return fmt.Sprintf("Scanning... %d files", progress.Files)
	case services.StageDeduplicating:
		return fmt.Sprintf("Comparing contents... %d/%d size groups", progress.Processed, progress.Candidates)
	case services.StageCollecting:
		return "Collecting results..."
	default:
		return "Working..."
	}
}

func confirmPrompt(appState *state.State) string {
	groups, files, reclaimable := appState.Summary()
	verb := "Report"
	switch appState.Action.Type {
	case domain.ActionMove:
		verb = fmt.Sprintf("Move to %s", appState.Action.Destination)
	case domain.ActionDelete:
		verb = "Delete"
	}
	return fmt.Sprintf("%s %d files from %d groups (%s)? y/n", verb, files, groups, humanize.IBytes(reclaimable))
}

func countHeaders(rows []state.VisibleRow) int {
	count := 0
	for _, row := range rows {
		if row.IsHeader() {
			count++
		}
	}
	return count
}

func (model *Model) ensureCursorVisible() {
	visible := model.state.VisibleRows()
	if len(visible) == 0 {
		model.state.Cursor = 0
		model.viewTop = 0
		return
	}
	if model.state.Cursor >= len(visible) {
		model.state.Cursor = len(visible) - 1
	}
	if model.state.Cursor < 0 {
		model.state.Cursor = 0
	}
	listHeight := model.listHeight()
	if listHeight <= 0 {
		return
	}
	if model.state.Cursor < model.viewTop {
		model.viewTop = model.state.Cursor
	}
	if model.state.Cursor >= model.viewTop+listHeight {
		model.viewTop = model.state.Cursor - listHeight + 1
	}
	maxTop := len(visible) - listHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if model.viewTop > maxTop {
		model.viewTop = maxTop
	}
}

func (model *Model) listHeight() int {
	return model.height - 6
}
