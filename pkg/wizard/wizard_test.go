package wizard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"auditai/internal/testutil"
	"auditai/pkg/api"
	"auditai/pkg/riskposture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manualFields = []string{
	"bias_score", "hallucination_score", "toxicity_score", "robustness_score",
	"explainability_score", "data_leakage_score", "drift_score",
}

type sleepRecorder struct {
	events []string
}

func (s *sleepRecorder) pacer(delay time.Duration) *Pacer {
	p := NewPacer(delay)
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		s.events = append(s.events, "sleep "+d.String())
		return nil
	}
	return p
}

func setup(t *testing.T, pacer *Pacer) (*Wizard, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)
	client := api.NewClient(backend.URL(), api.WithTokenSource(api.StaticToken(testutil.Token("a@b.com", time.Hour))))
	return New(client, pacer, nil), backend
}

func sentBody(t *testing.T, backend *testutil.Backend) map[string]any {
	t.Helper()
	rec, ok := backend.Last(http.MethodPost, "/reports/generate")
	require.True(t, ok)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body, &body))
	return body
}

func TestDefaultMetricBadge(t *testing.T) {
	w, _ := setup(t, nil)
	assert.InDelta(t, 0.3, w.Metrics.Get("bias"), 1e-9)
	assert.Equal(t, riskposture.Medium, w.Metrics.Level("bias"))
	assert.Equal(t, "badge medium", riskposture.BadgeClass(w.Metrics.Level("bias")))
}

func TestMetricsClampAndReject(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.Set("drift", 1.4))
	assert.Equal(t, 1.0, m.Get("drift"))
	require.NoError(t, m.Set("drift", -2))
	assert.Equal(t, 0.0, m.Get("drift"))
	assert.Error(t, m.Set("latency", 0.1))
}

func TestFormEnums(t *testing.T) {
	f := NewForm()
	assert.Equal(t, "production", f.DeployEnv)
	assert.Equal(t, "all", f.Framework)
	require.NoError(t, f.SetDeployEnv("POC"))
	assert.Equal(t, "poc", f.DeployEnv)
	assert.Error(t, f.SetDeployEnv("mars"))
	require.NoError(t, f.SetFramework("gdpr"))
	assert.Error(t, f.SetFramework("sox"))
}

func TestCanGenerateNeedsModelName(t *testing.T) {
	w, backend := setup(t, nil)
	assert.False(t, w.CanGenerate())

	w.Form.ModelName = "   "
	assert.False(t, w.CanGenerate())
	_, err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrModelNameRequired)
	assert.Zero(t, backend.Count(http.MethodPost, "/reports/generate"))

	w.Form.ModelName = " x"
	assert.True(t, w.CanGenerate())
}

func TestUploadOverwritesMetrics(t *testing.T) {
	w, backend := setup(t, nil)
	backend.UploadScores = api.Scores{"bias": 0.9, "drift": 0.05, "toxicity": 0.0}

	res, err := w.Upload(context.Background(), "/tmp/data/outputs.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, TabUpload, w.Tab())
	assert.Equal(t, res, w.UploadResult())

	assert.Equal(t, 0.9, w.Metrics.Get("bias"))
	assert.Equal(t, 0.05, w.Metrics.Get("drift"))
	assert.Equal(t, 0.0, w.Metrics.Get("toxicity"))
	// Keys the backend did not return keep their defaults.
	assert.Equal(t, DefaultMetrics["hallucination"], w.Metrics.Get("hallucination"))
	assert.Equal(t, DefaultMetrics["explainability"], w.Metrics.Get("explainability"))

	rec, _ := backend.Last(http.MethodPost, "/upload/")
	assert.Contains(t, string(rec.Body), `filename="outputs.csv"`)
}

func TestUploadFailureClearsResult(t *testing.T) {
	w, backend := setup(t, nil)
	_, err := w.Upload(context.Background(), "ok.json", strings.NewReader(`[{"decision":"approved"}]`))
	require.NoError(t, err)
	require.NotNil(t, w.UploadResult())

	backend.FailNext(http.MethodPost, "/upload/", http.StatusUnprocessableEntity, `{"detail":"File contains no data rows"}`)
	_, err = w.Upload(context.Background(), "empty.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.Nil(t, w.UploadResult())
	assert.Equal(t, "File contains no data rows", w.UploadError())
}

func TestUploadRejectsOtherExtensions(t *testing.T) {
	w, backend := setup(t, nil)
	_, err := w.Upload(context.Background(), "model.xlsx", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Zero(t, backend.Count(http.MethodPost, "/upload/"))
}

func TestPayloadWithUpload(t *testing.T) {
	w, backend := setup(t, nil)
	w.Form.ModelName = "CreditRisk-LLM"
	res, err := w.Upload(context.Background(), "outputs.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)

	rep, err := w.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.FullReport.DataSource.HasRealData)

	body := sentBody(t, backend)
	assert.Equal(t, res.UploadID, body["upload_id"])
	for _, f := range manualFields {
		assert.NotContains(t, body, f)
	}
}

func TestPayloadManual(t *testing.T) {
	w, backend := setup(t, nil)
	w.Form.ModelName = "CreditRisk-LLM"
	w.Form.OrgName = "Acme"
	require.NoError(t, w.Metrics.Set("toxicity", 0.55))

	_, err := w.Generate(context.Background())
	require.NoError(t, err)

	body := sentBody(t, backend)
	assert.NotContains(t, body, "upload_id")
	for _, f := range manualFields {
		assert.Contains(t, body, f)
	}
	assert.Equal(t, 0.55, body["toxicity_score"])
	assert.Equal(t, "CreditRisk-LLM", body["model_name"])
	assert.Equal(t, "production", body["deploy_env"])
	assert.Equal(t, "all", body["framework"])
}

func TestManualTabIgnoresHeldUpload(t *testing.T) {
	w, _ := setup(t, nil)
	w.Form.ModelName = "m"
	_, err := w.Upload(context.Background(), "outputs.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)

	w.SetTab(TabManual)
	req := w.Request()
	assert.Empty(t, req.UploadID)
	require.NotNil(t, req.BiasScore)
	assert.NotNil(t, w.UploadResult(), "upload tab state is retained")

	w.SetTab(TabUpload)
	assert.NotEmpty(t, w.Request().UploadID)
}

func TestProgressCaptionsPrecedeRequest(t *testing.T) {
	rec := &sleepRecorder{}
	w, backend := setup(t, rec.pacer(700*time.Millisecond))
	w.Form.ModelName = "CreditRisk-LLM"

	var steps []string
	w.OnStep = func(step int, caption string) {
		steps = append(steps, caption)
		rec.events = append(rec.events, "caption "+caption)
		assert.Equal(t, caption, w.Caption())
		assert.True(t, w.Generating())
		assert.False(t, w.CanGenerate())
		assert.Zero(t, backend.Count(http.MethodPost, "/reports/generate"), "request must wait for pacing")
	}

	rep, err := w.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CreditRisk-LLM", rep.ModelName)
	assert.Equal(t, ProgressCaptions, steps)
	require.Len(t, rec.events, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "caption "+ProgressCaptions[i], rec.events[2*i])
		assert.Equal(t, "sleep 700ms", rec.events[2*i+1])
	}
	assert.False(t, w.Generating())
	assert.Empty(t, w.Caption())
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/reports/generate"))
}

func TestGenerateFailureExitsProgress(t *testing.T) {
	w, backend := setup(t, nil)
	w.Form.ModelName = "m"
	backend.FailNext(http.MethodPost, "/reports/generate", http.StatusInternalServerError, `{"detail":"Failed to process uploaded file"}`)

	_, err := w.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to process uploaded file", w.Error())
	assert.False(t, w.Generating())
	assert.True(t, w.CanGenerate())
}

func TestGenerateIsExclusive(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	p := NewPacer(time.Millisecond)
	p.Captions = []string{"only"}
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		close(started)
		<-release
		return nil
	}
	w, _ := setup(t, p)
	w.Form.ModelName = "m"

	done := make(chan error, 1)
	go func() {
		_, err := w.Generate(context.Background())
		done <- err
	}()

	<-started
	_, err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	close(release)
	assert.NoError(t, <-done)
}

func TestPacerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewPacer(time.Hour).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
