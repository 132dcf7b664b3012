package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"auditai/internal/testutil"
	"auditai/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, token string) (*api.Client, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)
	return api.NewClient(backend.URL()+"/", api.WithTokenSource(api.StaticToken(token))), backend
}

func TestRegisterAndLogin(t *testing.T) {
	c, backend := newClient(t, "")
	ctx := context.Background()

	tok, err := c.Register(ctx, "a@b.com", "pw123456", "Acme")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)

	rec, ok := backend.Last(http.MethodPost, "/auth/register")
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.com","password":"pw123456","org_name":"Acme"}`, string(rec.Body))
	assert.Empty(t, rec.Header.Get("Authorization"), "no token means no header")
	assert.NotEmpty(t, rec.Header.Get("X-Request-ID"))

	tok, err = c.Login(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
}

func TestLoginFailureCarriesDetail(t *testing.T) {
	c, _ := newClient(t, "")

	_, err := c.Login(context.Background(), "nobody@b.com", "x")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}

func TestErrorFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", "<html>bad gateway</html>", "Unknown error"},
		{"json without detail", `{"error":"x"}`, "HTTP 502"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value is not a valid email"}]}`, "field required; value is not a valid email"},
		{"string detail", `{"detail":"Upstream down"}`, "Upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend := newClient(t, "")
			backend.FailNext(http.MethodPost, "/auth/login", http.StatusBadGateway, tt.body)

			_, err := c.Login(context.Background(), "a@b.com", "pw")
			require.Error(t, err)
			var apiErr *api.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Detail)
			assert.Equal(t, http.StatusBadGateway, apiErr.Status)
		})
	}
}

func TestAuthenticatedCallsSendBearer(t *testing.T) {
	token := testutil.Token("a@b.com", time.Hour)
	c, backend := newClient(t, token)

	_, err := c.ListReports(context.Background())
	require.NoError(t, err)

	rec, ok := backend.Last(http.MethodGet, "/reports/")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+token, rec.Header.Get("Authorization"))
}

func TestUnauthenticatedListFails(t *testing.T) {
	c, _ := newClient(t, "")

	_, err := c.ListReports(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Not authenticated", err.Error())
}

func TestUploadFile(t *testing.T) {
	c, backend := newClient(t, testutil.Token("a@b.com", time.Hour))

	res, err := c.UploadFile(context.Background(), "outputs.csv", strings.NewReader("decision,confidence\napproved,0.9\nrejected,0.4\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.UploadID)
	assert.Equal(t, "outputs.csv", res.Filename)
	assert.Equal(t, 2, res.RowCount)
	assert.InDelta(t, 0.62, res.Scores["bias"], 1e-9)

	rec, ok := backend.Last(http.MethodPost, "/upload/")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(rec.Header.Get("Content-Type"), "multipart/form-data"))
}

func TestGenerateGetDelete(t *testing.T) {
	c, backend := newClient(t, testutil.Token("a@b.com", time.Hour))
	ctx := context.Background()

	req := api.GenerateRequest{ModelName: "CreditRisk-LLM", DeployEnv: "production", Framework: "all"}
	req.SetManualScores(api.Scores{"bias": 0.3, "hallucination": 0.8})
	rep, err := c.GenerateReport(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "CreditRisk-LLM", rep.ModelName)
	assert.Len(t, rep.FullReport.Risks, 7)

	rec, _ := backend.Last(http.MethodPost, "/reports/generate")
	var sent map[string]any
	require.NoError(t, json.Unmarshal(rec.Body, &sent))
	assert.NotContains(t, sent, "upload_id")
	assert.Contains(t, sent, "toxicity_score", "zero scores are still sent")

	got, err := c.GetReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	list, err := c.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rep.ID, list[0].ID)

	del, err := c.DeleteReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, del.Deleted)

	_, err = c.GetReport(ctx, rep.ID)
	assert.Equal(t, "Report not found", err.Error())
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))
}

func TestEmptyIDIsRejectedLocally(t *testing.T) {
	c, backend := newClient(t, "tok")

	_, err := c.GetReport(context.Background(), " ")
	assert.ErrorIs(t, err, api.ErrEmptyID)
	_, err = c.DeleteReport(context.Background(), "")
	assert.ErrorIs(t, err, api.ErrEmptyID)
	assert.Empty(t, backend.Requests())
}

func TestCheckHealth(t *testing.T) {
	c, backend := newClient(t, "tok")

	h, err := c.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	rec, _ := backend.Last(http.MethodGet, "/health")
	assert.Empty(t, rec.Header.Get("Authorization"))

	backend.SetHealthy(false)
	_, err = c.CheckHealth(context.Background())
	assert.Error(t, err)
}

func TestNetworkFailure(t *testing.T) {
	c := api.NewClient("http://127.0.0.1:1")

	_, err := c.CheckHealth(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, api.StatusCode(err))
}

func TestSampleCSV(t *testing.T) {
	c, _ := newClient(t, testutil.Token("a@b.com", time.Hour))

	out, err := c.SampleCSV(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "sample_rows")
}
