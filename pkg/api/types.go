package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Scores is a flat map of risk dimension to score in [0,1].
type Scores map[string]float64

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UploadResult is the backend's analysis of an uploaded data file.
type UploadResult struct {
	UploadID string   `json:"upload_id"`
	Filename string   `json:"filename"`
	RowCount int      `json:"row_count"`
	Columns  []string `json:"columns,omitempty"`
	Scores   Scores   `json:"scores"`
	Message  string   `json:"message,omitempty"`
}

// GenerateRequest is the body of POST /reports/generate. It carries either
// UploadID or the manual score fields, never both.
type GenerateRequest struct {
	UploadID        string `json:"upload_id,omitempty"`
	ModelName       string `json:"model_name"`
	ModelVersion    string `json:"model_version,omitempty"`
	OrgName         string `json:"org_name,omitempty"`
	UseCase         string `json:"use_case,omitempty"`
	DeployEnv       string `json:"deploy_env,omitempty"`
	TrainingData    string `json:"training_data,omitempty"`
	OversightPolicy string `json:"oversight_policy,omitempty"`
	IncidentPolicy  string `json:"incident_policy,omitempty"`
	Framework       string `json:"framework,omitempty"`

	BiasScore           *float64 `json:"bias_score,omitempty"`
	HallucinationScore  *float64 `json:"hallucination_score,omitempty"`
	ToxicityScore       *float64 `json:"toxicity_score,omitempty"`
	RobustnessScore     *float64 `json:"robustness_score,omitempty"`
	ExplainabilityScore *float64 `json:"explainability_score,omitempty"`
	DataLeakageScore    *float64 `json:"data_leakage_score,omitempty"`
	DriftScore          *float64 `json:"drift_score,omitempty"`
}

// SetManualScores fills the seven score fields from a metric map.
func (r *GenerateRequest) SetManualScores(s Scores) {
	get := func(key string) *float64 {
		v := s[key]
		return &v
	}
	r.BiasScore = get("bias")
	r.HallucinationScore = get("hallucination")
	r.ToxicityScore = get("toxicity")
	r.RobustnessScore = get("robustness")
	r.ExplainabilityScore = get("explainability")
	r.DataLeakageScore = get("data_leakage")
	r.DriftScore = get("drift")
}

// ReportSummary is one row of GET /reports/.
type ReportSummary struct {
	ID           string    `json:"id"`
	ModelName    string    `json:"model_name"`
	OrgName      string    `json:"org_name"`
	OverallRisk  string    `json:"overall_risk"`
	ReadinessPct int       `json:"readiness_pct"`
	CreatedAt    Timestamp `json:"created_at"`
}

// Report is a full generated audit report. Clients treat it as read-only.
type Report struct {
	ID           string     `json:"id"`
	ModelName    string     `json:"model_name"`
	OrgName      string     `json:"org_name"`
	UseCase      string     `json:"use_case,omitempty"`
	OverallRisk  string     `json:"overall_risk"`
	ReadinessPct int        `json:"readiness_pct"`
	Metrics      Scores     `json:"metrics"`
	FullReport   FullReport `json:"full_report"`
	CreatedAt    Timestamp  `json:"created_at"`
}

// Summary returns the list-row projection of the report.
func (r Report) Summary() ReportSummary {
	return ReportSummary{
		ID:           r.ID,
		ModelName:    r.ModelName,
		OrgName:      r.OrgName,
		OverallRisk:  r.OverallRisk,
		ReadinessPct: r.ReadinessPct,
		CreatedAt:    r.CreatedAt,
	}
}

type FullReport struct {
	ID                   string            `json:"id,omitempty"`
	GeneratedAt          string            `json:"generated_at,omitempty"`
	System               SystemInfo        `json:"system"`
	DataSource           DataSource        `json:"data_source"`
	Summary              Summary           `json:"summary"`
	Risks                []Risk            `json:"risks"`
	AIAnalysis           *AIAnalysis       `json:"ai_analysis,omitempty"`
	ComplianceFrameworks []string          `json:"compliance_frameworks,omitempty"`
	Methodology          map[string]string `json:"methodology,omitempty"`
}

type SystemInfo struct {
	ModelName       string `json:"model_name"`
	ModelVersion    string `json:"model_version"`
	OrgName         string `json:"org_name"`
	UseCase         string `json:"use_case"`
	DeployEnv       string `json:"deploy_env"`
	TrainingData    string `json:"training_data"`
	OversightPolicy string `json:"oversight_policy"`
	IncidentPolicy  string `json:"incident_policy"`
	Framework       string `json:"framework"`
}

type DataSource struct {
	RowCount          int    `json:"row_count"`
	HasRealData       bool   `json:"has_real_data"`
	MeasurementMethod string `json:"measurement_method"`
}

type Summary struct {
	OverallRisk  string  `json:"overall_risk"`
	ReadinessPct int     `json:"readiness_pct"`
	AvgScore     float64 `json:"avg_score"`
	Critical     int     `json:"critical"`
	High         int     `json:"high"`
}

type Risk struct {
	Key        string          `json:"key"`
	Label      string          `json:"label"`
	Score      float64         `json:"score"`
	Level      string          `json:"level"`
	Compliance []ComplianceRef `json:"compliance"`
	Mitigation string          `json:"mitigation"`
}

type ComplianceRef struct {
	Framework string `json:"framework"`
	Ref       string `json:"ref"`
	Desc      string `json:"desc"`
}

// AIAnalysis keys are camelCase on the wire.
type AIAnalysis struct {
	ExecutiveSummary    string           `json:"executiveSummary"`
	TopPriority         string           `json:"topPriority"`
	ComplianceNarrative string           `json:"complianceNarrative,omitempty"`
	ReadinessAssessment string           `json:"readinessAssessment"`
	Recommendations     []Recommendation `json:"recommendations"`
}

type Recommendation struct {
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	Timeline   string `json:"timeline"`
	Effort     string `json:"effort"`
	Regulation string `json:"regulation"`
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// DeleteResult is the body of DELETE /reports/:id.
type DeleteResult struct {
	Deleted string `json:"deleted"`
}

// Timestamp accepts RFC3339 and zone-less ISO-8601 times; the latter are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
