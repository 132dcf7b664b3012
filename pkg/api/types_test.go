package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"auditai/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-03-01T10:20:30.123456"`, time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC)},
		{`"2024-03-01T10:20:30"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-01T10:20:30Z"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-01T12:20:30+02:00"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		var ts api.Timestamp
		require.NoError(t, json.Unmarshal([]byte(tt.in), &ts), tt.in)
		assert.True(t, tt.want.Equal(ts.Time), "%s parsed as %v", tt.in, ts.Time)
	}

	var ts api.Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestGenerateRequestOmitsUnsetScores(t *testing.T) {
	data, err := json.Marshal(api.GenerateRequest{ModelName: "m", UploadID: "u-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"model_name":"m","upload_id":"u-1"}`, string(data))
}

func TestReportDecodesBackendShape(t *testing.T) {
	raw := `{
	  "id": "r1", "model_name": "M", "org_name": "Acme", "overall_risk": "MEDIUM",
	  "readiness_pct": 68, "created_at": "2024-05-02T08:00:00.5",
	  "metrics": {"bias": 0.3, "data_leakage": 0.2},
	  "full_report": {
	    "summary": {"overall_risk": "MEDIUM", "readiness_pct": 68, "avg_score": 0.32, "critical": 0, "high": 1},
	    "risks": [{"key": "bias", "label": "Bias / Fairness", "score": 0.3, "level": "MEDIUM",
	               "compliance": [{"framework": "EU AI Act", "ref": "Art. 10(2)", "desc": "d"}], "mitigation": "m"}],
	    "data_source": {"row_count": 0, "has_real_data": false, "measurement_method": "Manual metric input"},
	    "ai_analysis": {"executiveSummary": "s", "topPriority": "p", "readinessAssessment": "r",
	                    "recommendations": [{"title": "t", "detail": "d", "timeline": "now", "effort": "Low", "regulation": "GDPR"}]}
	  }
	}`

	var rep api.Report
	require.NoError(t, json.Unmarshal([]byte(raw), &rep))
	assert.Equal(t, 68, rep.ReadinessPct)
	assert.InDelta(t, 0.2, rep.Metrics["data_leakage"], 1e-9)
	require.Len(t, rep.FullReport.Risks, 1)
	assert.Equal(t, "Art. 10(2)", rep.FullReport.Risks[0].Compliance[0].Ref)
	require.NotNil(t, rep.FullReport.AIAnalysis)
	assert.Equal(t, "Low", rep.FullReport.AIAnalysis.Recommendations[0].Effort)
	assert.Equal(t, 2024, rep.CreatedAt.Year())
	assert.Equal(t, "r1", rep.Summary().ID)
}
