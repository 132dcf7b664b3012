// Package shell routes between screens over an explicit application state.
package shell

import (
	"context"
	"errors"
	"sync"

	"auditai/pkg/api"
	"auditai/pkg/auth"
	"auditai/pkg/frameworks"
	"auditai/pkg/logging"
	"auditai/pkg/reportlist"
	"auditai/pkg/reports"
	"auditai/pkg/session"
	"auditai/pkg/wizard"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Screen string

const (
	ScreenAuth       Screen = "auth"
	ScreenAudit      Screen = "audit"
	ScreenReports    Screen = "reports"
	ScreenReport     Screen = "report"
	ScreenFrameworks Screen = "frameworks"
)

var (
	// ErrNoReport is returned when the report screen is requested with nothing open.
	ErrNoReport = errors.New("no report is open")
	// ErrStale is returned when a result arrives after the user left its screen.
	ErrStale = errors.New("screen changed before the result arrived")
)

// Client is the backend surface every screen shares.
type Client interface {
	wizard.Backend
	reportlist.Backend
	auth.HealthChecker
}

type App struct {
	Session    *session.Store
	Auth       *auth.Screen
	Frameworks *frameworks.Selector

	client Client
	pacer  *wizard.Pacer
	log    *zap.SugaredLogger

	mu      sync.Mutex
	wizard  *wizard.Wizard
	nav     Screen
	epoch   uint64
	list    *reportlist.List
	current *api.Report
	section int
	tasks   *errgroup.Group
}

func New(store *session.Store, client Client, pacer *wizard.Pacer, log *zap.SugaredLogger) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		Session:    store,
		Auth:       auth.NewScreen(store, client),
		Frameworks: frameworks.NewSelector(),
		client:     client,
		pacer:      pacer,
		log:        log,
		wizard:     wizard.New(client, pacer, log),
		nav:        ScreenAudit,
		list:       reportlist.New(client, log),
		tasks:      new(errgroup.Group),
	}
}

// Screen is auth while there is no session, otherwise the nav selection.
func (a *App) Screen() Screen {
	if _, ok := a.Session.Current(); !ok {
		return ScreenAuth
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav
}

// Navigate switches screens. Entering the reports screen mounts a fresh list.
func (a *App) Navigate(s Screen) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch s {
	case ScreenAudit, ScreenFrameworks:
	case ScreenReports:
		a.list = reportlist.New(a.client, a.log)
	case ScreenReport:
		if a.current == nil {
			return ErrNoReport
		}
	default:
		return errors.New("unknown screen " + string(s))
	}
	a.nav = s
	a.epoch++
	return nil
}

// Epoch changes on every navigation. Work started under an old epoch is dropped.
func (a *App) Epoch() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch
}

// Wizard is the audit form. Logout replaces it with a fresh one.
func (a *App) Wizard() *wizard.Wizard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wizard
}

// ReportList is the list mounted by the last visit to the reports screen.
func (a *App) ReportList() *reportlist.List {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.list
}

func (a *App) CurrentReport() *api.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *App) Section() reports.Section {
	a.mu.Lock()
	defer a.mu.Unlock()
	return reports.SectionAt(a.section)
}

// SetSection selects a report section; out-of-range indices wrap.
func (a *App) SetSection(i int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.section = int(reports.SectionAt(i))
}

// Generate runs the wizard and hands a new report to ReportGenerated.
func (a *App) Generate(ctx context.Context) (*api.Report, error) {
	epoch := a.Epoch()
	rep, err := a.Wizard().Generate(ctx)
	if err != nil {
		return nil, err
	}
	if a.Epoch() != epoch {
		a.log.Debugw("dropping generated report", "report_id", rep.ID)
		return nil, ErrStale
	}
	a.ReportGenerated(ctx, rep)
	return rep, nil
}

// OpenReport fetches a saved report and shows it.
func (a *App) OpenReport(ctx context.Context, id string) (*api.Report, error) {
	epoch := a.Epoch()
	rep, err := a.ReportList().Open(ctx, id)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch != epoch {
		return nil, ErrStale
	}
	a.show(rep)
	return rep, nil
}

// ReportGenerated shows rep and refreshes the reports list in the background.
// Call Wait to join the refresh.
func (a *App) ReportGenerated(ctx context.Context, rep *api.Report) {
	a.mu.Lock()
	a.show(rep)
	list := a.list
	tasks := a.tasks
	a.mu.Unlock()

	tasks.Go(func() error {
		if err := list.Reload(ctx); err != nil {
			a.log.Warnw("reports refresh failed", "error", err)
			return err
		}
		return nil
	})
}

func (a *App) show(rep *api.Report) {
	a.current = rep
	a.section = 0
	a.nav = ScreenReport
	a.epoch++
}

// Wait blocks until background tasks finish and returns the first error.
func (a *App) Wait() error {
	a.mu.Lock()
	tasks := a.tasks
	a.tasks = new(errgroup.Group)
	a.mu.Unlock()
	return tasks.Wait()
}

// Logout ends the session and drops cached report state.
func (a *App) Logout() error {
	err := a.Session.Logout()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = nil
	a.section = 0
	a.nav = ScreenAudit
	a.epoch++
	a.list = reportlist.New(a.client, a.log)
	a.wizard = wizard.New(a.client, a.pacer, a.log)
	a.Auth.ClearPassword()
	return err
}
