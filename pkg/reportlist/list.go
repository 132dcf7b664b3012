// Package reportlist holds the saved-reports screen: a list fetched once,
// per-row open, and delete behind a per-row confirmation.
package reportlist

import (
	"context"
	"sync"

	"auditai/pkg/api"
	"auditai/pkg/logging"

	"go.uber.org/zap"
)

// Backend is the subset of the API client the list calls.
type Backend interface {
	ListReports(ctx context.Context) ([]api.ReportSummary, error)
	GetReport(ctx context.Context, id string) (*api.Report, error)
	DeleteReport(ctx context.Context, id string) (*api.DeleteResult, error)
}

// DeleteOutcome says what a Delete call did.
type DeleteOutcome int

const (
	// Armed means the row now awaits a second click.
	Armed DeleteOutcome = iota
	// Deleted means the backend removed the report.
	Deleted
	// Failed means the backend refused; the row is kept.
	Failed
)

type List struct {
	client Backend
	log    *zap.SugaredLogger

	mu      sync.Mutex
	rows    []api.ReportSummary
	loaded  bool
	loading bool
	armed   string
	err     string
}

func New(client Backend, log *zap.SugaredLogger) *List {
	if log == nil {
		log = logging.Nop()
	}
	return &List{client: client, log: log}
}

// Load fetches the list. The screen calls it once on mount; Reload forces it.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()
	return l.Reload(ctx)
}

func (l *List) Reload(ctx context.Context) error {
	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()

	rows, err := l.client.ListReports(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.err = err.Error()
		return err
	}
	l.rows = rows
	l.loaded = true
	l.armed = ""
	l.err = ""
	return nil
}

// Rows returns a copy of the displayed rows.
func (l *List) Rows() []api.ReportSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.ReportSummary(nil), l.rows...)
}

func (l *List) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *List) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// ArmedID is the row awaiting delete confirmation, or "".
func (l *List) ArmedID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.armed
}

// Disarm cancels a pending confirmation.
func (l *List) Disarm() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.armed = ""
}

// Open fetches the full report for a row.
func (l *List) Open(ctx context.Context, id string) (*api.Report, error) {
	rep, err := l.client.GetReport(ctx, id)
	if err != nil {
		l.mu.Lock()
		l.err = err.Error()
		l.mu.Unlock()
		return nil, err
	}
	return rep, nil
}

// Delete arms the row on the first call and deletes it on a second call for
// the same row. A call for another row moves the confirmation there instead.
// A failed delete keeps the row, clears the confirmation and records the error.
func (l *List) Delete(ctx context.Context, id string) (DeleteOutcome, error) {
	l.mu.Lock()
	if l.armed != id {
		l.armed = id
		l.mu.Unlock()
		return Armed, nil
	}
	l.armed = ""
	l.mu.Unlock()

	_, err := l.client.DeleteReport(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = err.Error()
		l.log.Warnw("delete failed", "report_id", id, "error", err)
		return Failed, err
	}
	l.err = ""
	for i, r := range l.rows {
		if r.ID == id {
			l.rows = append(l.rows[:i:i], l.rows[i+1:]...)
			break
		}
	}
	return Deleted, nil
}
