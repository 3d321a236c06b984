package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupsweep/internal/config"
	"dupsweep/internal/domain"
	"dupsweep/internal/services"
	"dupsweep/internal/state"
)

type stubScanner struct {
	result services.ScanResult
	err    error
}

func (scanner stubScanner) Scan(context.Context, services.ScanRequest) (services.ScanResult, error) {
	return scanner.result, scanner.err
}

type recordingApplier struct {
	calls  int
	action services.Action
	groups []domain.DuplicateGroup
	err    error
}

func (applier *recordingApplier) Apply(_ context.Context, groups []domain.DuplicateGroup, action services.Action) (services.ActionResult, error) {
	applier.calls++
	applier.groups = groups
	applier.action = action
	return services.ActionResult{Type: action.Type, Groups: len(groups), SuccessCount: 1, Message: "move complete"}, applier.err
}

func member(path string) domain.HashedSample {
	return domain.HashedSample{Sample: domain.Sample{Record: domain.FileRecord{Path: path, Size: 4, CreatedAt: time.Now()}}}
}

func scanResult() services.ScanResult {
	return services.ScanResult{
		RunID:    "run",
		RootPath: "/data",
		Files:    3,
		Groups: []domain.DuplicateGroup{
			{Digest: "0123456789abcdef", Size: 4, Members: []domain.HashedSample{member("/data/sub/copy"), member("/data/orig")}},
		},
	}
}

func newTestModel(applier services.Applier) Model {
	cfg := config.DefaultConfig()
	cfg.Action = domain.ActionMove
	cfg.Destination = "/q"
	return NewModel(context.Background(), state.NewState(cfg), stubScanner{result: scanResult()}, applier, services.ScanRequest{RootPath: "/data"})
}

func update(t *testing.T, model Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := model.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func runes(value string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
}

func TestModel_ScanResultOpensConfirmation(t *testing.T) {
	model, _ := update(t, newTestModel(&recordingApplier{}), scanResultMsg{result: scanResult()})

	assert.False(t, model.scanning)
	assert.True(t, model.confirming)
	assert.Contains(t, model.status, "Move to /q 1 files from 1 groups")
	assert.Equal(t, "/data/orig", model.state.Groups[0].Members[0].Path())
}

func TestModel_ConfirmAppliesAction(t *testing.T) {
	applier := &recordingApplier{}
	model, _ := update(t, newTestModel(applier), scanResultMsg{result: scanResult()})

	model, cmd := update(t, model, runes("y"))
	require.NotNil(t, cmd)
	assert.True(t, model.applying)
	assert.False(t, model.confirming)

	model, _ = update(t, model, cmd())
	assert.Equal(t, 1, applier.calls)
	assert.Equal(t, services.Action{Type: domain.ActionMove, Destination: "/q"}, applier.action)
	assert.Len(t, applier.groups, 1)

	outcome := model.Outcome()
	require.NotNil(t, outcome.Action)
	assert.Equal(t, 1, outcome.Action.SuccessCount)
	assert.NoError(t, outcome.ActionErr)
	assert.True(t, model.applied)

	// a second apply is refused
	model, _ = update(t, model, runes("a"))
	assert.False(t, model.confirming)
	assert.Contains(t, model.status, "already applied")
}

func TestModel_CancelLeavesFilesAlone(t *testing.T) {
	applier := &recordingApplier{}
	model, _ := update(t, newTestModel(applier), scanResultMsg{result: scanResult()})

	model, cmd := update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, model.confirming)
	assert.Zero(t, applier.calls)
	assert.Nil(t, model.Outcome().Action)

	model, _ = update(t, model, runes("a"))
	assert.True(t, model.confirming)
}

func TestModel_ActionErrorIsShown(t *testing.T) {
	applier := &recordingApplier{err: services.ErrUnsupportedAction}
	model, _ := update(t, newTestModel(applier), scanResultMsg{result: scanResult()})
	model, cmd := update(t, model, runes("y"))
	model, _ = update(t, model, cmd())

	assert.Contains(t, model.status, "Action error")
	assert.ErrorIs(t, model.Outcome().ActionErr, services.ErrUnsupportedAction)
}

func TestModel_NoDuplicates(t *testing.T) {
	model, _ := update(t, newTestModel(&recordingApplier{}), scanResultMsg{result: services.ScanResult{Files: 2}})

	assert.False(t, model.confirming)
	assert.Contains(t, model.status, "No duplicates found in 2 files")

	model, _ = update(t, model, runes("a"))
	assert.Equal(t, "Nothing to apply", model.status)
}

func TestModel_ScanError(t *testing.T) {
	model, _ := update(t, newTestModel(&recordingApplier{}), scanResultMsg{err: errors.New("boom")})
	assert.Contains(t, model.status, "Scan error: boom")
	assert.Error(t, model.Outcome().ScanErr)
}

func TestModel_ProgressUpdatesStatus(t *testing.T) {
	model, _ := update(t, newTestModel(&recordingApplier{}), scanProgressMsg{progress: services.ScanProgress{
		Stage:      services.StageDeduplicating,
		Candidates: 4,
		Processed:  1,
	}})
	assert.Equal(t, "Comparing contents... 1/4 size groups", model.status)
}

func TestModel_QuitCancelsScan(t *testing.T) {
	model := newTestModel(&recordingApplier{})
	ctx := model.scanCtx

	model, cmd := update(t, model, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, model.scanning)
}

func TestModel_SearchInput(t *testing.T) {
	model, _ := update(t, newTestModel(&recordingApplier{}), scanResultMsg{result: scanResult()})
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})

	model, _ = update(t, model, runes("/"))
	require.True(t, model.searching)
	model, _ = update(t, model, runes("q")) // typed, not quit
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, model.searching)
	assert.Equal(t, "q", model.state.SearchQuery)
	assert.Empty(t, model.state.VisibleRows())

	model, _ = update(t, model, runes("x"))
	assert.Len(t, model.state.VisibleRows(), 3)
}

func TestModel_ViewShowsKeptFile(t *testing.T) {
	model, _ := update(t, newTestModel(&recordingApplier{}), scanResultMsg{result: scanResult()})
	model, _ = update(t, model, tea.WindowSizeMsg{Width: 120, Height: 30})

	view := model.View()
	assert.Contains(t, view, "/data/orig")
	assert.Contains(t, view, "move  /data/sub/copy")
	assert.Contains(t, view, "0123456789ab")

	model, _ = update(t, model, runes("?"))
	assert.Contains(t, model.View(), "dupsweep Help")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██░░]", progressBar(1, 2, 0, 4))
	assert.Equal(t, "[█░░░]", progressBar(0, 0, 5, 4))
}
