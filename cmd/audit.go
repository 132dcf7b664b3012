package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"auditai/pkg/reports"
	"auditai/pkg/riskposture"
	"auditai/pkg/wizard"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errMetricWithFile = errors.New("--metric cannot be combined with --file, uploaded data is scored by the backend")

type auditOptions struct {
	form    wizard.Form
	file    string
	metrics []string
}

// parseMetric splits a key=value pair.
func parseMetric(s string) (string, float64, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("metric %q must be key=value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("metric %q: %w", s, err)
	}
	return strings.TrimSpace(key), v, nil
}

func printProgress(w io.Writer) func(step int, caption string) {
	return func(step int, caption string) {
		color.New(color.FgCyan).Fprintf(w, "  [%d/%d] ", step+1, len(wizard.ProgressCaptions))
		fmt.Fprintln(w, caption)
	}
}

func printMetrics(w io.Writer, m wizard.Metrics) {
	for _, key := range riskposture.MetricKeys {
		fmt.Fprintf(w, "  %-28s %.2f %s\n", riskposture.Label(key), m.Get(key), riskposture.Badge(m.Level(key)))
	}
}

func newAuditCmd(opts *rootOptions) *cobra.Command {
	o := &auditOptions{form: wizard.NewForm()}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run a compliance audit and generate a report",
		Long: `Runs a compliance audit for a model. Scores come either from an uploaded
CSV/JSON file of model outputs (--file) or from manual metrics (--metric key=value),
starting from moderate defaults.`,
		Example: `  auditai audit --model CreditRisk-LLM --metric bias=0.6 --metric drift=0.1
  auditai audit --model CreditRisk-LLM --file outputs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.file != "" && len(o.metrics) > 0 {
				return errMetricWithFile
			}
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			w := rt.app.Wizard()
			w.Form = o.form
			if err := w.Form.SetDeployEnv(o.form.DeployEnv); err != nil {
				return err
			}
			if err := w.Form.SetFramework(o.form.Framework); err != nil {
				return err
			}

			if o.file != "" {
				f, err := os.Open(o.file)
				if err != nil {
					return fmt.Errorf("failed to open upload: %w", err)
				}
				res, err := w.Upload(ctx, o.file, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("upload failed: %w", err)
				}
				fmt.Fprintf(out, "Uploaded %s: %d rows scored\n", res.Filename, res.RowCount)
			} else {
				w.SetTab(wizard.TabManual)
				for _, m := range o.metrics {
					key, v, err := parseMetric(m)
					if err != nil {
						return err
					}
					if err := w.Metrics.Set(key, v); err != nil {
						return err
					}
				}
			}
			printMetrics(out, w.Metrics)

			w.OnStep = printProgress(out)
			rep, err := rt.app.Generate(ctx)
			if err != nil {
				return err
			}
			if err := rt.app.Wait(); err != nil {
				rt.log.Warnw("report list refresh failed", "error", err)
			}

			fmt.Fprintln(out)
			reports.RenderSection(out, rep, int(reports.ExecutiveSummary))
			fmt.Fprintf(out, "\nReport ID: %s\n", rep.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.form.ModelName, "model", "", "Model name (required)")
	f.StringVar(&o.form.ModelVersion, "model-version", "", "Model version")
	f.StringVar(&o.form.OrgName, "org", "", "Organisation name")
	f.StringVar(&o.form.UseCase, "use-case", "", "Intended use case")
	f.StringVar(&o.form.DeployEnv, "env", o.form.DeployEnv, "Deployment environment: "+strings.Join(wizard.DeployEnvs, ", "))
	f.StringVar(&o.form.TrainingData, "training-data", "", "Training data description")
	f.StringVar(&o.form.OversightPolicy, "oversight", "", "Human oversight policy")
	f.StringVar(&o.form.IncidentPolicy, "incident-policy", "", "Incident response policy")
	f.StringVar(&o.form.Framework, "framework", o.form.Framework, "Framework focus: "+strings.Join(wizard.Frameworks, ", "))
	f.StringVarP(&o.file, "file", "f", "", "CSV or JSON file of model outputs to score")
	f.StringArrayVarP(&o.metrics, "metric", "m", nil, "Manual metric override as key=value, repeatable")
	return cmd
}

func newSampleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sample-csv",
		Short: "Show the upload format the backend expects",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			sample, err := rt.client.SampleCSV(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sample)
		},
	}
}
