package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"auditai/pkg/api"
	"auditai/pkg/riskposture"
)

// Section indexes the six fixed report sections.
type Section int

const (
	ExecutiveSummary Section = iota
	SystemDescription
	RiskBreakdown
	ComplianceMapping
	Governance
	Recommendations
)

var sectionNames = []string{
	"Executive Summary",
	"System Description",
	"Risk Breakdown",
	"Compliance Mapping",
	"Governance",
	"Recommendations",
}

// SectionCount is the number of report sections.
const SectionCount = 6

// SectionAt wraps any index onto the six sections.
func SectionAt(i int) Section {
	i %= SectionCount
	if i < 0 {
		i += SectionCount
	}
	return Section(i)
}

func (s Section) String() string {
	return sectionNames[SectionAt(int(s))]
}

// SectionNames lists the section titles in order.
func SectionNames() []string {
	return append([]string(nil), sectionNames...)
}

// RiskRow is one risk dimension prepared for display.
type RiskRow struct {
	Key        string
	Label      string
	Score      float64
	Pct        int
	Level      riskposture.Level
	BadgeCls   string
	Compliance []api.ComplianceRef
	Mitigation string
}

// ComplianceRef is a regulation reference with the risk that raised it.
type ComplianceRef struct {
	Ref       string
	Desc      string
	RiskLabel string
	Level     riskposture.Level
}

// ComplianceGroup collects references for one framework.
type ComplianceGroup struct {
	Framework string
	Refs      []ComplianceRef
}

// ReportView is the display model shared by the terminal and HTML renderers.
type ReportView struct {
	Title       string
	GeneratedAt string
	ReportDate  string

	ModelName    string
	OrgName      string
	OverallRisk  riskposture.Level
	OverallCls   string
	ReadinessPct int
	AvgScore     float64

	RiskCounts riskposture.RiskLevelCounts
	Total      int

	Risks       []RiskRow
	TopRisks    []RiskRow
	Compliance  []ComplianceGroup
	System      api.SystemInfo
	DataSource  api.DataSource
	AI          *api.AIAnalysis
	Sections    []string
	Methodology map[string]string
}

// BuildReportView derives everything the renderers show from the report alone.
func BuildReportView(rep *api.Report) ReportView {
	rows := riskRows(rep)

	rp := riskposture.RiskPosture{}
	for _, r := range rows {
		rp.Functions = append(rp.Functions, riskposture.Function{Name: r.Key, Score: r.Score})
	}

	overall := riskposture.ParseLevel(rep.OverallRisk)
	if overall == "" {
		overall = riskposture.ParseLevel(rep.FullReport.Summary.OverallRisk)
	}

	title := rep.ModelName
	if title == "" {
		title = rep.FullReport.System.ModelName
	}

	return ReportView{
		Title:        fmt.Sprintf("AI Compliance Audit: %s", title),
		GeneratedAt:  time.Now().Format(time.RFC1123),
		ReportDate:   reportDate(rep),
		ModelName:    title,
		OrgName:      firstNonEmpty(rep.OrgName, rep.FullReport.System.OrgName),
		OverallRisk:  overall,
		OverallCls:   riskposture.BadgeClass(overall),
		ReadinessPct: rep.ReadinessPct,
		AvgScore:     rep.FullReport.Summary.AvgScore,
		RiskCounts:   rp.CountRiskLevels(),
		Total:        len(rows),
		Risks:        rows,
		TopRisks:     TopRisks(rows, 3),
		Compliance:   GroupCompliance(rows),
		System:       rep.FullReport.System,
		DataSource:   rep.FullReport.DataSource,
		AI:           rep.FullReport.AIAnalysis,
		Sections:     SectionNames(),
		Methodology:  rep.FullReport.Methodology,
	}
}

// riskRows prefers the backend's risk list and falls back to the flat metrics.
func riskRows(rep *api.Report) []RiskRow {
	var rows []RiskRow
	if len(rep.FullReport.Risks) > 0 {
		for _, r := range rep.FullReport.Risks {
			level := riskposture.LevelFor(r.Score)
			rows = append(rows, RiskRow{
				Key:        r.Key,
				Label:      firstNonEmpty(r.Label, riskposture.Label(r.Key)),
				Score:      r.Score,
				Pct:        pct(r.Score),
				Level:      level,
				BadgeCls:   riskposture.BadgeClass(level),
				Compliance: r.Compliance,
				Mitigation: r.Mitigation,
			})
		}
		return rows
	}
	for _, f := range riskposture.FromScores(rep.Metrics).Functions {
		level := riskposture.LevelFor(f.Score)
		rows = append(rows, RiskRow{
			Key:      f.Name,
			Label:    riskposture.Label(f.Name),
			Score:    f.Score,
			Pct:      pct(f.Score),
			Level:    level,
			BadgeCls: riskposture.BadgeClass(level),
		})
	}
	return rows
}

// TopRisks returns up to n rows by descending score; ties keep report order.
func TopRisks(rows []RiskRow, n int) []RiskRow {
	out := append([]RiskRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// GroupCompliance flattens every risk's references and groups them by
// framework, keeping frameworks in the order they are first seen.
func GroupCompliance(rows []RiskRow) []ComplianceGroup {
	var groups []ComplianceGroup
	index := map[string]int{}
	for _, r := range rows {
		for _, c := range r.Compliance {
			i, ok := index[c.Framework]
			if !ok {
				i = len(groups)
				index[c.Framework] = i
				groups = append(groups, ComplianceGroup{Framework: c.Framework})
			}
			groups[i].Refs = append(groups[i].Refs, ComplianceRef{
				Ref:       c.Ref,
				Desc:      c.Desc,
				RiskLabel: r.Label,
				Level:     r.Level,
			})
		}
	}
	return groups
}

func reportDate(rep *api.Report) string {
	if !rep.CreatedAt.IsZero() {
		return rep.CreatedAt.UTC().Format("2006-01-02")
	}
	if len(rep.FullReport.GeneratedAt) >= 10 {
		return rep.FullReport.GeneratedAt[:10]
	}
	return time.Now().UTC().Format("2006-01-02")
}

func pct(score float64) int {
	return int(score*100 + 0.5)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
