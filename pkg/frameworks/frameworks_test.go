package frameworks

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllHasFourFrameworksWithArticles(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	names := []string{}
	for _, f := range all {
		names = append(names, f.Name)
		assert.NotEmpty(t, f.Summary, f.Name)
		assert.NotEmpty(t, f.Articles, f.Name)
	}
	assert.Equal(t, []string{"EU AI Act", "NIST AI RMF", "GDPR", "ISO/IEC 42001"}, names)

	all[0].Name = "changed"
	assert.Equal(t, "EU AI Act", All()[0].Name)
}

func TestLookup(t *testing.T) {
	f, ok := Lookup("gdpr")
	require.True(t, ok)
	assert.Equal(t, "GDPR", f.Name)

	f, ok = Lookup("nist ai rmf")
	require.True(t, ok)
	assert.Equal(t, "nist-ai-rmf", f.ID)
	assert.Equal(t, "GOVERN", f.Articles[0].Ref)

	_, ok = Lookup("hipaa")
	assert.False(t, ok)
}

func TestSelector(t *testing.T) {
	s := NewSelector()
	assert.Equal(t, "eu-ai-act", s.Selected().ID)

	require.NoError(t, s.Select("iso-42001"))
	assert.Equal(t, "ISO/IEC 42001", s.Selected().Name)

	require.Error(t, s.Select("nope"))
	assert.Equal(t, "iso-42001", s.Selected().ID)
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	PrintIndex(&buf)
	assert.Contains(t, buf.String(), "3. GDPR (European Union) [gdpr]")

	buf.Reset()
	f, _ := Lookup("eu-ai-act")
	PrintDetail(&buf, f)
	assert.Contains(t, buf.String(), "Human oversight")
	assert.Contains(t, buf.String(), "Art. 14")
}
