package riskposture

import (
	"strings"

	"github.com/fatih/color"
)

// MetricKeys are the seven risk dimensions in display order.
var MetricKeys = []string{
	"bias",
	"hallucination",
	"toxicity",
	"robustness",
	"explainability",
	"data_leakage",
	"drift",
}

var metricLabels = map[string]string{
	"bias":           "Bias / Fairness",
	"hallucination":  "Hallucination Rate",
	"toxicity":       "Toxicity",
	"robustness":     "Robustness Risk",
	"explainability": "Explainability Gap",
	"data_leakage":   "Data Leakage Risk",
	"drift":          "Model Drift",
}

// Label returns the human label for a metric key, or the key itself.
func Label(key string) string {
	if l, ok := metricLabels[key]; ok {
		return l
	}
	return key
}

// ParseLevel normalises a backend level string. Unknown values come back as "".
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case Critical:
		return Critical
	case High:
		return High
	case Medium:
		return Medium
	case Low:
		return Low
	}
	return ""
}

// Rank orders tiers from most to least severe. Unknown tiers sort last.
func Rank(l Level) int {
	switch l {
	case Critical:
		return 0
	case High:
		return 1
	case Medium:
		return 2
	case Low:
		return 3
	default:
		return 4
	}
}

// Color returns the badge color for a tier.
func Color(l Level) *color.Color {
	switch l {
	case Critical:
		return color.New(color.FgHiWhite, color.BgRed, color.Bold)
	case High:
		return color.New(color.FgRed, color.Bold)
	case Medium:
		return color.New(color.FgYellow)
	case Low:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgCyan)
	}
}

// Badge renders "[LEVEL]" in the tier color.
func Badge(l Level) string {
	if l == "" {
		l = "UNKNOWN"
	}
	return Color(l).Sprintf("[%s]", l)
}

// BadgeClass is the CSS class used by the HTML report.
func BadgeClass(l Level) string {
	switch l {
	case Critical:
		return "badge critical"
	case High:
		return "badge high"
	case Medium:
		return "badge medium"
	case Low:
		return "badge low"
	default:
		return "badge info"
	}
}
