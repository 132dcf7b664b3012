package reports

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"auditai/pkg/api"
	"auditai/pkg/riskposture"

	"github.com/fatih/color"
)

var (
	heading = color.New(color.FgHiCyan, color.Bold)
	label   = color.New(color.FgHiBlue)
	muted   = color.New(color.FgHiBlack)
)

// RenderSection writes one section of the report. It reads only fields
// already present on the report.
func RenderSection(w io.Writer, rep *api.Report, section int) {
	view := BuildReportView(rep)
	s := SectionAt(section)

	heading.Fprintf(w, "%s  (%d/%d)\n", s, int(s)+1, SectionCount)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	switch s {
	case ExecutiveSummary:
		renderExecutive(w, view)
	case SystemDescription:
		renderSystem(w, view)
	case RiskBreakdown:
		renderRisks(w, view)
	case ComplianceMapping:
		renderCompliance(w, view)
	case Governance:
		renderGovernance(w, view)
	case Recommendations:
		renderRecommendations(w, view)
	}
}

// RenderAll writes every section in order.
func RenderAll(w io.Writer, rep *api.Report) {
	for i := 0; i < SectionCount; i++ {
		RenderSection(w, rep, i)
		fmt.Fprintln(w)
	}
}

func renderExecutive(w io.Writer, v ReportView) {
	field(w, "Model", v.ModelName)
	field(w, "Organisation", orDash(v.OrgName))
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Overall risk:"), riskposture.Badge(v.OverallRisk))
	fmt.Fprintf(w, "%s %d%%\n", label.Sprint("Readiness:"), v.ReadinessPct)
	fmt.Fprintf(w, "%s %d critical, %d high, %d medium, %d low\n", label.Sprint("Risks:"),
		v.RiskCounts.Critical, v.RiskCounts.High, v.RiskCounts.Medium, v.RiskCounts.Low)

	if v.AI != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, v.AI.ExecutiveSummary)
		if v.AI.TopPriority != "" {
			fmt.Fprintf(w, "\n%s %s\n", color.New(color.FgRed, color.Bold).Sprint("Top priority:"), v.AI.TopPriority)
		}
	}

	fmt.Fprintln(w)
	label.Fprintln(w, "Top risks:")
	for i, r := range v.TopRisks {
		fmt.Fprintf(w, "  %d. %-22s %3d%% %s\n", i+1, r.Label, r.Pct, riskposture.Badge(r.Level))
	}
}

func renderSystem(w io.Writer, v ReportView) {
	s := v.System
	field(w, "Model", orDash(firstNonEmpty(s.ModelName, v.ModelName)))
	field(w, "Version", orDash(s.ModelVersion))
	field(w, "Organisation", orDash(firstNonEmpty(s.OrgName, v.OrgName)))
	field(w, "Use case", orDash(s.UseCase))
	field(w, "Deployment", orDash(s.DeployEnv))
	field(w, "Framework scope", orDash(s.Framework))
	field(w, "Training data", orDash(s.TrainingData))
	field(w, "Data source", orDash(v.DataSource.MeasurementMethod))
	if v.DataSource.HasRealData {
		field(w, "Rows analysed", fmt.Sprintf("%d", v.DataSource.RowCount))
	}
}

func renderRisks(w io.Writer, v ReportView) {
	for _, r := range v.Risks {
		filled := min(max(r.Pct/5, 0), 20)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
		fmt.Fprintf(w, "%-22s %s %3d%% %s\n", r.Label, riskposture.Color(r.Level).Sprint(bar), r.Pct, riskposture.Badge(r.Level))
		if r.Mitigation != "" {
			muted.Fprintf(w, "    %s\n", r.Mitigation)
		}
	}
}

func renderCompliance(w io.Writer, v ReportView) {
	if len(v.Compliance) == 0 {
		muted.Fprintln(w, "No regulation references in this report.")
		return
	}
	for _, g := range v.Compliance {
		label.Fprintln(w, g.Framework)
		for _, c := range g.Refs {
			fmt.Fprintf(w, "  %-14s %-45s %s %s\n", c.Ref, c.Desc, muted.Sprint(c.RiskLabel), riskposture.Badge(c.Level))
		}
	}
}

func renderGovernance(w io.Writer, v ReportView) {
	field(w, "Human oversight", orDash(v.System.OversightPolicy))
	field(w, "Incident response", orDash(v.System.IncidentPolicy))
	provenance := "Manual metric input"
	if v.DataSource.HasRealData {
		provenance = fmt.Sprintf("Measured from %d rows of real model output", v.DataSource.RowCount)
	}
	field(w, "Evidence", provenance)
	if v.AI != nil && v.AI.ReadinessAssessment != "" {
		field(w, "Readiness", v.AI.ReadinessAssessment)
	}
	if v.AI != nil && v.AI.ComplianceNarrative != "" {
		field(w, "Posture", v.AI.ComplianceNarrative)
	}
	if len(v.Methodology) > 0 {
		fmt.Fprintln(w)
		label.Fprintln(w, "Methodology:")
		keys := make([]string, 0, len(v.Methodology))
		for k := range v.Methodology {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-20s %s\n", riskposture.Label(k), v.Methodology[k])
		}
	}
}

func renderRecommendations(w io.Writer, v ReportView) {
	if v.AI == nil || len(v.AI.Recommendations) == 0 {
		muted.Fprintln(w, "No recommendations were generated for this report.")
		return
	}
	for i, r := range v.AI.Recommendations {
		color.New(color.Bold).Fprintf(w, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(w, "   %s\n", r.Detail)
		muted.Fprintf(w, "   %s · effort %s · %s\n", r.Timeline, r.Effort, r.Regulation)
	}
}

// PrintReportTable lists saved reports, one per row.
func PrintReportTable(w io.Writer, rows []api.ReportSummary) {
	headerFormat := "%-38s %-24s %-10s %-9s %s\n"
	fmt.Fprintf(w, headerFormat,
		color.HiBlueString("ID"),
		color.HiBlueString("Model"),
		color.HiBlueString("Risk"),
		color.HiBlueString("Ready"),
		color.HiBlueString("Created"))
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range rows {
		level := riskposture.ParseLevel(r.OverallRisk)
		created := "-"
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%-38s %-24s %-10s %-9s %s\n",
			r.ID, truncate(r.ModelName, 24), riskposture.Badge(level), fmt.Sprintf("%d%%", r.ReadinessPct), created)
	}
}

func field(w io.Writer, name, value string) {
	fmt.Fprintf(w, "%s %s\n", label.Sprintf("%s:", name), value)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
