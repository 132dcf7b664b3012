package reportlist

import (
	"context"
	"net/http"
	"testing"
	"time"

	"auditai/internal/testutil"
	"auditai/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, n int) (*List, *testutil.Backend, []api.Report) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)
	var seeded []api.Report
	for i := 0; i < n; i++ {
		rep := testutil.SampleReport("model", api.Scores{"bias": 0.1 * float64(i+1)})
		backend.AddReport(rep)
		seeded = append(seeded, rep)
	}
	client := api.NewClient(backend.URL(), api.WithTokenSource(api.StaticToken(testutil.Token("a@b.com", time.Hour))))
	return New(client, nil), backend, seeded
}

func TestLoadOnce(t *testing.T) {
	l, backend, _ := setup(t, 2)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx))
	require.NoError(t, l.Load(ctx))
	assert.Len(t, l.Rows(), 2)
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/reports/"))

	require.NoError(t, l.Reload(ctx))
	assert.Equal(t, 2, backend.Count(http.MethodGet, "/reports/"))
}

func TestLoadFailure(t *testing.T) {
	l, backend, _ := setup(t, 1)
	backend.FailNext(http.MethodGet, "/reports/", http.StatusInternalServerError, "oops")

	require.Error(t, l.Load(context.Background()))
	assert.Equal(t, "Unknown error", l.Error())
	assert.Empty(t, l.Rows())
	assert.False(t, l.Loading())
}

func TestOpen(t *testing.T) {
	l, _, seeded := setup(t, 1)

	rep, err := l.Open(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, rep.ID)

	_, err = l.Open(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "Report not found", l.Error())
}

func TestDeleteNeedsTwoClicks(t *testing.T) {
	l, backend, seeded := setup(t, 2)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))
	id := seeded[0].ID

	out, err := l.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Armed, out)
	assert.Equal(t, id, l.ArmedID())
	assert.Zero(t, backend.Count(http.MethodDelete, "/reports/"+id))

	out, err = l.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Deleted, out)
	assert.Empty(t, l.ArmedID())
	assert.Len(t, l.Rows(), 1)
	assert.NotEqual(t, id, l.Rows()[0].ID)
	assert.Len(t, backend.Reports(), 1)
}

func TestDeleteOtherRowMovesConfirmation(t *testing.T) {
	l, backend, seeded := setup(t, 2)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))
	a, b := seeded[0].ID, seeded[1].ID

	out, _ := l.Delete(ctx, a)
	assert.Equal(t, Armed, out)
	out, _ = l.Delete(ctx, b)
	assert.Equal(t, Armed, out)
	assert.Equal(t, b, l.ArmedID())

	assert.Zero(t, backend.Count(http.MethodDelete, "/reports/"+a))
	assert.Zero(t, backend.Count(http.MethodDelete, "/reports/"+b))
	assert.Len(t, l.Rows(), 2)

	l.Disarm()
	assert.Empty(t, l.ArmedID())
}

func TestDeleteFailureKeepsRow(t *testing.T) {
	l, backend, seeded := setup(t, 1)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))
	id := seeded[0].ID
	backend.FailNext(http.MethodDelete, "/reports/"+id, http.StatusInternalServerError, `{"detail":"database is locked"}`)

	_, _ = l.Delete(ctx, id)
	out, err := l.Delete(ctx, id)
	require.Error(t, err)
	assert.Equal(t, Failed, out)
	assert.Equal(t, "database is locked", l.Error())
	assert.Len(t, l.Rows(), 1)
	assert.Empty(t, l.ArmedID())
}
