// Package testutil provides an in-process fake of the AuditAI backend.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"time"

	"auditai/pkg/api"
	"auditai/pkg/riskposture"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const signingKey = "testutil-secret"

// Recorded is one request seen by the fake.
type Recorded struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

type user struct {
	password string
	orgName  string
}

// Backend is a fake backend with in-memory users, uploads and reports.
type Backend struct {
	Server *httptest.Server

	// UploadScores are returned by every successful upload.
	UploadScores api.Scores

	mu       sync.Mutex
	users    map[string]user
	uploads  map[string]api.Scores
	reports  []api.Report
	requests []Recorded
	fail     map[string]failure
	healthy  bool
}

// NewBackend starts a fake backend. Callers must Close it.
func NewBackend() *Backend {
	b := &Backend{
		UploadScores: api.Scores{
			"bias": 0.62, "hallucination": 0.41, "toxicity": 0.05,
			"robustness": 0.33, "explainability": 0.8, "data_leakage": 0.12, "drift": 0.27,
		},
		users:   map[string]user{},
		uploads: map[string]api.Scores{},
		fail:    map[string]failure{},
		healthy: true,
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Use(b.injectFailures)
	r.Get("/health", b.health)
	r.Post("/auth/register", b.register)
	r.Post("/auth/login", b.login)
	r.Group(func(r chi.Router) {
		r.Use(b.requireToken)
		r.Post("/upload/", b.upload)
		r.Get("/upload/sample-csv", b.sampleCSV)
		r.Post("/reports/generate", b.generate)
		r.Get("/reports/", b.list)
		r.Get("/reports/{id}", b.get)
		r.Delete("/reports/{id}", b.delete)
	})

	b.Server = httptest.NewServer(r)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) Close() { b.Server.Close() }

// SetHealthy controls whether /health answers 200 or 503.
func (b *Backend) SetHealthy(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = ok
}

// FailNext makes the next request to method+path answer status with body.
func (b *Backend) FailNext(method, p string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[method+" "+p] = failure{status: status, body: body}
}

// AddUser seeds an account.
func (b *Backend) AddUser(email, password, orgName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = user{password: password, orgName: orgName}
}

// AddReport seeds a stored report at the head of the list.
func (b *Backend) AddReport(rep api.Report) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append([]api.Report{rep}, b.reports...)
}

// Reports returns a copy of the stored reports.
func (b *Backend) Reports() []api.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Report(nil), b.reports...)
}

// Requests returns every request seen so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Recorded(nil), b.requests...)
}

// Count returns how many requests hit method+path.
func (b *Backend) Count(method, p string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == p {
			n++
		}
	}
	return n
}

// Last returns the most recent request to method+path.
func (b *Backend) Last(method, p string) (Recorded, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == p {
			return reqs[i], true
		}
	}
	return Recorded{}, false
}

// Token issues a bearer token accepted by the fake.
func Token(email string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	return s
}

// SampleReport builds a report the way the backend does, from scores alone.
func SampleReport(modelName string, scores api.Scores) api.Report {
	rp := riskposture.FromScores(scores)
	var risks []api.Risk
	total := 0.0
	for _, f := range rp.Functions {
		total += f.Score
		risks = append(risks, api.Risk{
			Key:        f.Name,
			Label:      riskposture.Label(f.Name),
			Score:      f.Score,
			Level:      string(riskposture.LevelFor(f.Score)),
			Compliance: complianceMap[f.Name],
			Mitigation: "Review and implement appropriate controls.",
		})
	}
	avg := 0.0
	if len(risks) > 0 {
		avg = total / float64(len(risks))
	}
	counts := rp.CountRiskLevels()
	overall := string(riskposture.LevelFor(avg))
	readiness := int((1-avg)*100 + 0.5)

	return api.Report{
		ID:           uuid.NewString(),
		ModelName:    modelName,
		OverallRisk:  overall,
		ReadinessPct: readiness,
		Metrics:      scores,
		CreatedAt:    api.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
		FullReport: api.FullReport{
			System: api.SystemInfo{ModelName: modelName, DeployEnv: "production", Framework: "all"},
			DataSource: api.DataSource{
				MeasurementMethod: "Manual metric input",
			},
			Summary: api.Summary{
				OverallRisk:  overall,
				ReadinessPct: readiness,
				AvgScore:     avg,
				Critical:     counts.Critical,
				High:         counts.High,
			},
			Risks: risks,
			AIAnalysis: &api.AIAnalysis{
				ExecutiveSummary:    "Audit of " + modelName + " completed.",
				TopPriority:         "Address the highest scoring risk first.",
				ReadinessAssessment: "Conditionally ready for regulatory submission.",
				Recommendations: []api.Recommendation{{
					Title:      "Remediate Explainability Risk",
					Detail:     "Publish model cards.",
					Timeline:   "Short-term (2-6 weeks)",
					Effort:     "Medium",
					Regulation: "GDPR Art. 13(2)(f)",
				}},
			},
		},
	}
}

var complianceMap = map[string][]api.ComplianceRef{
	"bias":           {{Framework: "EU AI Act", Ref: "Art. 10(2)", Desc: "Training data governance"}, {Framework: "ISO 42001", Ref: "§6.1.2", Desc: "AI risk assessment"}},
	"hallucination":  {{Framework: "NIST AI RMF", Ref: "GOVERN 1.1", Desc: "Reliability policies"}, {Framework: "EU AI Act", Ref: "Art. 13", Desc: "Transparency"}},
	"toxicity":       {{Framework: "EU AI Act", Ref: "Art. 9(4)", Desc: "Harmful output prevention"}, {Framework: "GDPR", Ref: "Art. 22", Desc: "Automated decisions"}},
	"robustness":     {{Framework: "NIST AI RMF", Ref: "MANAGE 2.4", Desc: "Residual risk"}, {Framework: "ISO 42001", Ref: "§8.4", Desc: "Performance monitoring"}},
	"explainability": {{Framework: "GDPR", Ref: "Art. 13(2)(f)", Desc: "Right to explanation"}, {Framework: "EU AI Act", Ref: "Art. 13(1)", Desc: "Transparency obligations"}},
	"data_leakage":   {{Framework: "GDPR", Ref: "Art. 32", Desc: "Security of processing"}, {Framework: "ISO 42001", Ref: "§8.2.3", Desc: "Data privacy"}},
	"drift":          {{Framework: "NIST AI RMF", Ref: "MEASURE 2.5", Desc: "Performance over time"}, {Framework: "EU AI Act", Ref: "Art. 17", Desc: "Post-market monitoring"}},
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		b.mu.Lock()
		b.requests = append(b.requests, Recorded{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		f, ok := b.fail[key]
		delete(b.fail, key)
		b.mu.Unlock()
		if ok {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte(signingKey), nil })
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) health(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ok := b.healthy
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, api.Health{Status: "ok", Service: "AuditAI Backend v1.0"})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		OrgName  string `json:"org_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b.mu.Lock()
	_, exists := b.users[body.Email]
	if !exists {
		b.users[body.Email] = user{password: body.Password, orgName: body.OrgName}
	}
	b.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: Token(body.Email, time.Hour), TokenType: "bearer"})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	b.mu.Lock()
	u, ok := b.users[body.Email]
	b.mu.Unlock()
	if !ok || u.password != body.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: Token(body.Email, time.Hour), TokenType: "bearer"})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	ext := strings.ToLower(path.Ext(header.Filename))
	if ext != ".csv" && ext != ".json" {
		writeDetail(w, http.StatusBadRequest, "Only CSV and JSON files are supported")
		return
	}
	data, _ := io.ReadAll(file)
	content := strings.TrimSpace(string(data))
	rows := strings.Count(content, "\n")
	if ext == ".json" && content != "" && content != "[]" {
		rows = strings.Count(content, "{")
	}
	if rows == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "File contains no data rows")
		return
	}

	id := uuid.NewString()
	b.mu.Lock()
	scores := api.Scores{}
	for k, v := range b.UploadScores {
		scores[k] = v
	}
	b.uploads[id] = scores
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.UploadResult{
		UploadID: id,
		Filename: header.Filename,
		RowCount: rows,
		Scores:   scores,
		Message:  fmt.Sprintf("Successfully processed %d rows. Scores computed from real data.", rows),
	})
}

func (b *Backend) sampleCSV(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"description": "Upload a CSV with these columns.",
		"sample_rows": []map[string]any{{"decision": "approved", "confidence": 0.91}},
	})
}

func (b *Backend) generate(w http.ResponseWriter, r *http.Request) {
	var body api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var scores api.Scores
	rowCount := 0
	if body.UploadID != "" {
		b.mu.Lock()
		s, ok := b.uploads[body.UploadID]
		b.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusNotFound, "Upload not found")
			return
		}
		scores = s
		rowCount = 2
	} else {
		or := func(p *float64, def float64) float64 {
			if p == nil || *p == 0 {
				return def
			}
			return *p
		}
		scores = api.Scores{
			"bias":           or(body.BiasScore, 0.3),
			"hallucination":  or(body.HallucinationScore, 0.3),
			"toxicity":       or(body.ToxicityScore, 0.1),
			"robustness":     or(body.RobustnessScore, 0.3),
			"explainability": or(body.ExplainabilityScore, 0.4),
			"data_leakage":   or(body.DataLeakageScore, 0.2),
			"drift":          or(body.DriftScore, 0.25),
		}
	}

	rep := SampleReport(body.ModelName, scores)
	rep.OrgName = body.OrgName
	rep.UseCase = body.UseCase
	rep.FullReport.System = api.SystemInfo{
		ModelName:       body.ModelName,
		ModelVersion:    body.ModelVersion,
		OrgName:         body.OrgName,
		UseCase:         body.UseCase,
		DeployEnv:       body.DeployEnv,
		TrainingData:    body.TrainingData,
		OversightPolicy: body.OversightPolicy,
		IncidentPolicy:  body.IncidentPolicy,
		Framework:       body.Framework,
	}
	if rowCount > 0 {
		rep.FullReport.DataSource = api.DataSource{
			RowCount:          rowCount,
			HasRealData:       true,
			MeasurementMethod: "Automated scoring from uploaded model output data",
		}
	}

	b.AddReport(rep)
	writeJSON(w, http.StatusOK, rep)
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	out := []api.ReportSummary{}
	for _, rep := range b.Reports() {
		out = append(out, rep.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, rep := range b.Reports() {
		if rep.ID == id {
			writeJSON(w, http.StatusOK, rep)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Report not found")
}

func (b *Backend) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, rep := range b.reports {
		if rep.ID == id {
			b.reports = append(b.reports[:i], b.reports[i+1:]...)
			writeJSON(w, http.StatusOK, api.DeleteResult{Deleted: id})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Report not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
