package shell

import (
	"context"
	"net/http"
	"testing"

	"auditai/internal/testutil"
	"auditai/pkg/api"
	"auditai/pkg/reports"
	"auditai/pkg/session"
	"auditai/pkg/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*App, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)
	backend.AddUser("a@b.com", "pw123456", "Acme")

	client := api.NewClient(backend.URL())
	store := session.NewStore(client, session.NewMemoryStorage(), nil)
	client.SetTokenSource(store)
	return New(store, client, wizard.NewPacer(0), nil), backend
}

func login(t *testing.T, app *App) {
	t.Helper()
	app.Auth.SetCredentials("", "a@b.com", "pw123456")
	require.NoError(t, app.Auth.Submit(context.Background()))
}

func TestScreenFollowsSession(t *testing.T) {
	app, _ := setup(t)
	assert.Equal(t, ScreenAuth, app.Screen())

	require.NoError(t, app.Navigate(ScreenFrameworks))
	assert.Equal(t, ScreenAuth, app.Screen(), "no session means auth regardless of nav")

	login(t, app)
	assert.Equal(t, ScreenFrameworks, app.Screen())
}

func TestNavigate(t *testing.T) {
	app, _ := setup(t)
	login(t, app)

	assert.ErrorIs(t, app.Navigate(ScreenReport), ErrNoReport)
	assert.Error(t, app.Navigate(Screen("settings")))

	before := app.Epoch()
	first := app.ReportList()
	require.NoError(t, app.Navigate(ScreenReports))
	assert.Greater(t, app.Epoch(), before)
	assert.NotSame(t, first, app.ReportList(), "each visit mounts a fresh list")
}

func TestGenerateShowsReportAndRefreshesList(t *testing.T) {
	app, backend := setup(t)
	login(t, app)
	ctx := context.Background()

	app.Wizard().Form.ModelName = "CreditRisk-LLM"
	rep, err := app.Generate(ctx)
	require.NoError(t, err)

	assert.Equal(t, ScreenReport, app.Screen())
	assert.Same(t, rep, app.CurrentReport())
	assert.Equal(t, reports.ExecutiveSummary, app.Section())

	require.NoError(t, app.Wait())
	rows := app.ReportList().Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, rep.ID, rows[0].ID)
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/reports/"))
}

func TestGenerateDroppedAfterNavigatingAway(t *testing.T) {
	app, backend := setup(t)
	login(t, app)

	app.Wizard().Form.ModelName = "m"
	app.Wizard().OnStep = func(step int, _ string) {
		if step == 0 {
			require.NoError(t, app.Navigate(ScreenFrameworks))
		}
	}

	_, err := app.Generate(context.Background())
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, ScreenFrameworks, app.Screen())
	assert.Nil(t, app.CurrentReport())
	assert.Len(t, backend.Reports(), 1, "the backend call itself still completed")
}

func TestRefreshFailureSurfacesFromWait(t *testing.T) {
	app, backend := setup(t)
	login(t, app)
	backend.FailNext(http.MethodGet, "/reports/", http.StatusInternalServerError, `{"detail":"boom"}`)

	app.ReportGenerated(context.Background(), &api.Report{ID: "r1"})
	err := app.Wait()
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, ScreenReport, app.Screen())

	assert.NoError(t, app.Wait(), "a joined group is not reported twice")
}

func TestOpenReportAndSections(t *testing.T) {
	app, backend := setup(t)
	login(t, app)
	seeded := testutil.SampleReport("seeded", api.Scores{"bias": 0.2})
	backend.AddReport(seeded)
	ctx := context.Background()

	require.NoError(t, app.Navigate(ScreenReports))
	require.NoError(t, app.ReportList().Load(ctx))

	rep, err := app.OpenReport(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, rep.ID)
	assert.Equal(t, ScreenReport, app.Screen())

	app.SetSection(7)
	assert.Equal(t, reports.SystemDescription, app.Section())
	app.SetSection(-1)
	assert.Equal(t, reports.Recommendations, app.Section())
}

func TestLogoutClearsReportState(t *testing.T) {
	app, _ := setup(t)
	login(t, app)
	app.ReportGenerated(context.Background(), &api.Report{ID: "r1"})
	require.NoError(t, app.Wait())

	before := app.Wizard()
	before.Form.ModelName = "kept?"

	require.NoError(t, app.Logout())
	assert.Equal(t, ScreenAuth, app.Screen())
	assert.NotSame(t, before, app.Wizard())
	assert.Empty(t, app.Wizard().Form.ModelName)
	org, email, password := app.Auth.Credentials()
	assert.Empty(t, org)
	assert.Equal(t, "a@b.com", email)
	assert.Empty(t, password, "logout clears the password field")
	assert.Nil(t, app.CurrentReport())
	assert.Empty(t, app.ReportList().Rows())
	_, ok := app.Session.Current()
	assert.False(t, ok)
}
