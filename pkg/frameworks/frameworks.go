// Package frameworks holds the static regulatory reference shown alongside
// audit reports.
package frameworks

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type Article struct {
	Ref   string
	Title string
	Desc  string
}

type Framework struct {
	ID       string
	Name     string
	Region   string
	Summary  string
	Articles []Article
}

var catalogue = []Framework{
	{
		ID:      "eu-ai-act",
		Name:    "EU AI Act",
		Region:  "European Union",
		Summary: "Risk-based regulation of AI systems placed on the EU market. High-risk systems carry obligations on risk management, data governance, transparency, human oversight and post-market monitoring.",
		Articles: []Article{
			{Ref: "Art. 9", Title: "Risk management system", Desc: "Establish and maintain a risk management process across the whole lifecycle of a high-risk AI system."},
			{Ref: "Art. 10", Title: "Data and data governance", Desc: "Training, validation and testing data must be relevant, representative and examined for possible biases."},
			{Ref: "Art. 11", Title: "Technical documentation", Desc: "Draw up documentation demonstrating compliance before the system is placed on the market."},
			{Ref: "Art. 13", Title: "Transparency", Desc: "Deployers must be able to interpret the system's output and use it appropriately."},
			{Ref: "Art. 14", Title: "Human oversight", Desc: "Design the system so natural persons can effectively oversee it while in use."},
			{Ref: "Art. 15", Title: "Accuracy, robustness and cybersecurity", Desc: "Achieve an appropriate level of accuracy and resilience against errors and manipulation."},
			{Ref: "Art. 17", Title: "Quality management system", Desc: "Providers put in place a documented quality management system."},
		},
	},
	{
		ID:      "nist-ai-rmf",
		Name:    "NIST AI RMF",
		Region:  "United States",
		Summary: "Voluntary framework for managing AI risk, organised into four core functions that apply across the AI lifecycle.",
		Articles: []Article{
			{Ref: "GOVERN", Title: "Govern", Desc: "Cultivate a risk-aware culture with policies, accountability and processes for AI risk."},
			{Ref: "MAP", Title: "Map", Desc: "Establish context and identify risks related to the intended use of the system."},
			{Ref: "MEASURE", Title: "Measure", Desc: "Analyse, assess and track identified risks with quantitative and qualitative methods."},
			{Ref: "MANAGE", Title: "Manage", Desc: "Prioritise and act on risks based on projected impact, and monitor residual risk."},
		},
	},
	{
		ID:      "gdpr",
		Name:    "GDPR",
		Region:  "European Union",
		Summary: "General Data Protection Regulation. Governs processing of personal data, including automated decision-making and profiling.",
		Articles: []Article{
			{Ref: "Art. 5", Title: "Principles of processing", Desc: "Lawfulness, fairness, transparency, purpose limitation, data minimisation, accuracy and storage limitation."},
			{Ref: "Art. 13", Title: "Information to be provided", Desc: "Data subjects receive meaningful information about the logic involved in automated decisions."},
			{Ref: "Art. 22", Title: "Automated individual decision-making", Desc: "Right not to be subject to a decision based solely on automated processing with significant effects."},
			{Ref: "Art. 25", Title: "Data protection by design", Desc: "Implement technical and organisational measures that embed data protection principles."},
			{Ref: "Art. 32", Title: "Security of processing", Desc: "Ensure a level of security appropriate to the risk, including confidentiality and resilience."},
			{Ref: "Art. 35", Title: "Data protection impact assessment", Desc: "Assess high-risk processing before it begins."},
		},
	},
	{
		ID:      "iso-42001",
		Name:    "ISO/IEC 42001",
		Region:  "International",
		Summary: "Management system standard for organisations that develop or use AI, covering planning, operation, evaluation and improvement.",
		Articles: []Article{
			{Ref: "§4", Title: "Context of the organisation", Desc: "Determine internal and external issues and the scope of the AI management system."},
			{Ref: "§5", Title: "Leadership", Desc: "Top management commitment, AI policy and assigned roles."},
			{Ref: "§6", Title: "Planning", Desc: "AI risk assessment, risk treatment and AI system impact assessment."},
			{Ref: "§8", Title: "Operation", Desc: "Operational planning and control of AI system lifecycle processes."},
			{Ref: "§9", Title: "Performance evaluation", Desc: "Monitoring, measurement, internal audit and management review."},
			{Ref: "§10", Title: "Improvement", Desc: "Nonconformity, corrective action and continual improvement."},
		},
	},
}

// All returns the frameworks in display order.
func All() []Framework {
	out := make([]Framework, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a framework by id or by case-insensitive name.
func Lookup(id string) (Framework, bool) {
	id = strings.TrimSpace(id)
	for _, f := range catalogue {
		if f.ID == id || strings.EqualFold(f.Name, id) {
			return f, true
		}
	}
	return Framework{}, false
}

// Selector tracks which framework's detail is shown.
type Selector struct {
	selected string
}

// NewSelector starts on the first framework.
func NewSelector() *Selector {
	return &Selector{selected: catalogue[0].ID}
}

func (s *Selector) Select(id string) error {
	f, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("unknown framework %q", id)
	}
	s.selected = f.ID
	return nil
}

func (s *Selector) Selected() Framework {
	f, _ := Lookup(s.selected)
	return f
}

// PrintIndex writes the numbered framework list.
func PrintIndex(w io.Writer) {
	bold := color.New(color.Bold)
	for i, f := range catalogue {
		bold.Fprintf(w, "%d. %s", i+1, f.Name)
		fmt.Fprintf(w, " (%s) [%s]\n", f.Region, f.ID)
	}
}

// PrintDetail writes one framework's summary and articles.
func PrintDetail(w io.Writer, f Framework) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "%s\n", f.Name)
	fmt.Fprintf(w, "%s\n\n", f.Summary)
	ref := color.New(color.FgYellow)
	for _, a := range f.Articles {
		ref.Fprintf(w, "  %-8s", a.Ref)
		fmt.Fprintf(w, " %s\n           %s\n", a.Title, a.Desc)
	}
}
