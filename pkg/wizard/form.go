package wizard

import (
	"fmt"
	"sort"
	"strings"

	"auditai/pkg/api"
	"auditai/pkg/riskposture"
)

// DeployEnvs are the accepted deployment environments.
var DeployEnvs = []string{"production", "staging", "research", "poc"}

// Frameworks are the accepted compliance framework selectors.
var Frameworks = []string{"all", "euai", "nist", "gdpr", "iso"}

// Form is the model metadata collected by the wizard.
type Form struct {
	ModelName       string
	ModelVersion    string
	OrgName         string
	UseCase         string
	DeployEnv       string
	TrainingData    string
	OversightPolicy string
	IncidentPolicy  string
	Framework       string
}

// NewForm returns a form with the default selectors.
func NewForm() Form {
	return Form{DeployEnv: "production", Framework: "all"}
}

func (f *Form) SetDeployEnv(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	if !contains(DeployEnvs, v) {
		return fmt.Errorf("deploy env %q: must be one of %s", v, strings.Join(DeployEnvs, ", "))
	}
	f.DeployEnv = v
	return nil
}

func (f *Form) SetFramework(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	if !contains(Frameworks, v) {
		return fmt.Errorf("framework %q: must be one of %s", v, strings.Join(Frameworks, ", "))
	}
	f.Framework = v
	return nil
}

// Valid reports whether the form may be submitted.
func (f Form) Valid() bool {
	return strings.TrimSpace(f.ModelName) != ""
}

func (f Form) request() api.GenerateRequest {
	return api.GenerateRequest{
		ModelName:       strings.TrimSpace(f.ModelName),
		ModelVersion:    f.ModelVersion,
		OrgName:         f.OrgName,
		UseCase:         f.UseCase,
		DeployEnv:       f.DeployEnv,
		TrainingData:    f.TrainingData,
		OversightPolicy: f.OversightPolicy,
		IncidentPolicy:  f.IncidentPolicy,
		Framework:       f.Framework,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultMetrics are the moderate seed values for manual entry.
var DefaultMetrics = map[string]float64{
	"bias":           0.3,
	"hallucination":  0.3,
	"toxicity":       0.1,
	"robustness":     0.3,
	"explainability": 0.4,
	"data_leakage":   0.2,
	"drift":          0.25,
}

// Metrics holds the seven manual risk scores, each in [0,1].
type Metrics struct {
	values map[string]float64
}

func NewMetrics() Metrics {
	m := Metrics{values: map[string]float64{}}
	for k, v := range DefaultMetrics {
		m.values[k] = v
	}
	return m
}

// Set clamps v into [0,1]. Unknown keys are rejected.
func (m Metrics) Set(key string, v float64) error {
	if _, ok := DefaultMetrics[key]; !ok {
		known := make([]string, 0, len(DefaultMetrics))
		for k := range DefaultMetrics {
			known = append(known, k)
		}
		sort.Strings(known)
		return fmt.Errorf("unknown metric %q (known: %s)", key, strings.Join(known, ", "))
	}
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	m.values[key] = v
	return nil
}

func (m Metrics) Get(key string) float64 {
	return m.values[key]
}

// Level is the tier shown on the metric's badge.
func (m Metrics) Level(key string) riskposture.Level {
	return riskposture.LevelFor(m.values[key])
}

// Overwrite applies every known key present in scores.
func (m Metrics) Overwrite(scores api.Scores) {
	for k, v := range scores {
		if _, ok := DefaultMetrics[k]; ok {
			_ = m.Set(k, v)
		}
	}
}

// Scores returns a copy as a flat map.
func (m Metrics) Scores() api.Scores {
	out := api.Scores{}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
