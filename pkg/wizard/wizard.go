// Package wizard implements the audit creation flow: model metadata, risk
// scores from an uploaded file or manual entry, and paced report generation.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"auditai/pkg/api"
	"auditai/pkg/logging"

	"go.uber.org/zap"
)

type Tab string

const (
	TabUpload Tab = "upload"
	TabManual Tab = "manual"
)

var (
	ErrModelNameRequired = errors.New("model name is required")
	ErrBusy              = errors.New("a report is already being generated")
	ErrUnsupportedFile   = errors.New("only CSV and JSON files are supported")
)

// Backend is the subset of the API client the wizard calls.
type Backend interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (*api.UploadResult, error)
	GenerateReport(ctx context.Context, body api.GenerateRequest) (*api.Report, error)
}

type Wizard struct {
	Form    Form
	Metrics Metrics

	// OnStep observes each progress caption as it is shown.
	OnStep func(step int, caption string)

	client Backend
	pacer  *Pacer
	log    *zap.SugaredLogger

	mu         sync.Mutex
	tab        Tab
	upload     *api.UploadResult
	uploadErr  string
	err        string
	generating bool
	caption    string
}

func New(client Backend, pacer *Pacer, log *zap.SugaredLogger) *Wizard {
	if pacer == nil {
		pacer = NewPacer(0)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Wizard{
		Form:    NewForm(),
		Metrics: NewMetrics(),
		client:  client,
		pacer:   pacer,
		log:     log,
		tab:     TabManual,
	}
}

func (w *Wizard) Tab() Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tab
}

// SetTab switches input mode. State of both tabs is kept.
func (w *Wizard) SetTab(t Tab) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t != TabUpload {
		t = TabManual
	}
	w.tab = t
}

// UploadResult returns the held upload analysis, if any.
func (w *Wizard) UploadResult() *api.UploadResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.upload
}

func (w *Wizard) UploadError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.uploadErr
}

// ClearUpload drops the held upload so manual scores are sent.
func (w *Wizard) ClearUpload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.upload = nil
	w.uploadErr = ""
}

// Upload sends one CSV or JSON file for server-side scoring. On success the
// returned scores overwrite the manual metrics and the upload id is kept.
// On failure any earlier result is cleared.
func (w *Wizard) Upload(ctx context.Context, filename string, r io.Reader) (*api.UploadResult, error) {
	w.mu.Lock()
	w.tab = TabUpload
	w.uploadErr = ""
	w.mu.Unlock()

	res, err := w.doUpload(ctx, filename, r)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.upload = nil
		w.uploadErr = err.Error()
		return nil, err
	}
	w.upload = res
	w.Metrics.Overwrite(res.Scores)
	w.log.Debugw("upload analysed", "upload_id", res.UploadID, "rows", res.RowCount)
	return res, nil
}

func (w *Wizard) doUpload(ctx context.Context, filename string, r io.Reader) (*api.UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".csv" && ext != ".json" {
		return nil, ErrUnsupportedFile
	}
	return w.client.UploadFile(ctx, filepath.Base(filename), r)
}

// CanGenerate mirrors the enabled state of the generate control.
func (w *Wizard) CanGenerate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Form.Valid() && !w.generating
}

// Request builds the generate payload: upload id when an upload is held on
// the upload tab, otherwise the seven manual scores.
func (w *Wizard) Request() api.GenerateRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	req := w.Form.request()
	if w.tab == TabUpload && w.upload != nil {
		req.UploadID = w.upload.UploadID
		return req
	}
	req.SetManualScores(w.Metrics.Scores())
	return req
}

func (w *Wizard) Generating() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generating
}

// Caption is the progress caption currently shown, or "".
func (w *Wizard) Caption() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.caption
}

func (w *Wizard) Error() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Generate shows every progress caption, then issues the report request.
// Only one generation runs at a time.
func (w *Wizard) Generate(ctx context.Context) (*api.Report, error) {
	w.mu.Lock()
	if w.generating {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if !w.Form.Valid() {
		w.err = ErrModelNameRequired.Error()
		w.mu.Unlock()
		return nil, ErrModelNameRequired
	}
	w.generating = true
	w.err = ""
	w.mu.Unlock()

	rep, err := w.generate(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.generating = false
	w.caption = ""
	if err != nil {
		w.err = err.Error()
		return nil, err
	}
	return rep, nil
}

func (w *Wizard) generate(ctx context.Context) (*api.Report, error) {
	err := w.pacer.Run(ctx, func(step int, caption string) {
		w.mu.Lock()
		w.caption = caption
		w.mu.Unlock()
		if w.OnStep != nil {
			w.OnStep(step, caption)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("generation interrupted: %w", err)
	}

	req := w.Request()
	w.log.Debugw("generating report", "model", req.ModelName, "upload_id", req.UploadID)
	return w.client.GenerateReport(ctx, req)
}
