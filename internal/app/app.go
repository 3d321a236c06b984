package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"dupsweep/internal/config"
	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
	"dupsweep/internal/report"
	"dupsweep/internal/services"
	"dupsweep/internal/state"
	"dupsweep/internal/store"
	"dupsweep/internal/ui"
)

// App runs one duplicate sweep with a validated configuration.
type App struct {
	cfg      config.Config
	fs       afero.Fs
	scanner  *services.Pipeline
	applier  *services.Applicator
	notifier report.Notifier
	logger   *slog.Logger
}

func New(cfg config.Config, fs afero.Fs, out, errOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := cfg.Level()
	logger := logging.New(errOut, level, cfg.LogFormat)
	if cfg.Interactive {
		// the review screen owns the terminal
		logger = logging.Discard()
	}
	return &App{
		cfg:      cfg,
		fs:       fs,
		scanner:  services.NewPipeline(fs, cfg.Workers),
		applier:  services.NewApplicator(fs, cfg.Keep),
		notifier: report.NewNotifier(out),
		logger:   logger,
	}, nil
}

// Run scans, applies the configured action and records the run. Per-file
// action failures are reported but do not make Run fail.
func (app *App) Run(ctx context.Context) error {
	ctx = logging.Context(ctx, app.logger)
	started := time.Now()
	request := services.ScanRequest{
		RootPath:   app.cfg.Path,
		ShowHidden: app.cfg.ShowHidden,
		Exclude:    app.cfg.Exclude,
	}

	var (
		scan   services.ScanResult
		action services.ActionResult
		err    error
	)
	if app.cfg.Interactive {
		scan, action, err = app.review(ctx, request)
	} else {
		scan, action, err = app.sweep(ctx, request)
	}
	if err != nil {
		app.notifier.Failed(err)
		return err
	}
	app.record(ctx, started, scan, action)
	return nil
}

func (app *App) sweep(ctx context.Context, request services.ScanRequest) (services.ScanResult, services.ActionResult, error) {
	scan, err := app.scanner.Scan(ctx, request)
	if err != nil {
		return scan, services.ActionResult{}, err
	}
	app.notifier.ScanFinished(scan)
	app.notifier.Groups(scan.Groups, app.cfg.Keep)

	action, err := app.applier.Apply(ctx, scan.Groups, app.requestedAction())
	if err != nil {
		return scan, action, err
	}
	app.notifier.ActionFinished(action)
	return scan, action, nil
}

func (app *App) review(ctx context.Context, request services.ScanRequest) (services.ScanResult, services.ActionResult, error) {
	model := ui.NewModel(ctx, state.NewState(app.cfg), app.scanner, app.applier, request)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return services.ScanResult{}, services.ActionResult{}, fmt.Errorf("running review: %w", err)
	}
	provider, ok := final.(ui.OutcomeProvider)
	if !ok {
		return services.ScanResult{}, services.ActionResult{}, errors.New("review ended without a result")
	}
	outcome := provider.Outcome()
	if outcome.ScanErr != nil {
		return outcome.Scan, services.ActionResult{}, outcome.ScanErr
	}
	app.notifier.ScanFinished(outcome.Scan)
	if outcome.Action == nil {
		action := services.ActionResult{Type: app.cfg.Action, Message: "no action applied"}
		app.notifier.ActionFinished(action)
		return outcome.Scan, action, nil
	}
	if outcome.ActionErr != nil {
		return outcome.Scan, *outcome.Action, outcome.ActionErr
	}
	app.notifier.ActionFinished(*outcome.Action)
	return outcome.Scan, *outcome.Action, nil
}

func (app *App) requestedAction() services.Action {
	action := services.Action{Type: app.cfg.Action}
	if app.cfg.Action == domain.ActionMove {
		action.Destination = app.cfg.Destination
	}
	return action
}

// record stores the run when a database is configured. A failure here is
// logged only; the sweep itself already happened.
func (app *App) record(ctx context.Context, started time.Time, scan services.ScanResult, action services.ActionResult) {
	if app.cfg.Database == "" {
		return
	}
	logger := logging.FromContext(ctx)
	runs, err := store.Open(app.cfg.Database)
	if err != nil {
		logger.Error("opening run database failed", "path", app.cfg.Database, "err", err)
		return
	}
	defer runs.Close()

	run, files := store.NewRun(started, scan, action)
	if err := runs.RecordRun(ctx, run, files); err != nil {
		logger.Error("recording run failed", "run", run.ID, "err", err)
		return
	}
	logger.Debug("run recorded", "run", run.ID, "files", len(files))
}
