package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"auditai/pkg/reportlist"
	"auditai/pkg/reports"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// parseSection accepts a 1-based index or a section title, case-insensitive.
func parseSection(s string) (reports.Section, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > reports.SectionCount {
			return 0, fmt.Errorf("section %d out of range 1-%d", n, reports.SectionCount)
		}
		return reports.SectionAt(n - 1), nil
	}
	want := strings.ReplaceAll(strings.ToLower(s), "-", " ")
	for i, name := range reports.SectionNames() {
		if strings.ToLower(name) == want {
			return reports.SectionAt(i), nil
		}
	}
	return 0, fmt.Errorf("unknown section %q (one of: %s)", s, strings.Join(reports.SectionNames(), ", "))
}

func newReportsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List saved audit reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			list := rt.app.ReportList()
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			rows := list.Rows()
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports yet. Run `auditai audit` to create one.")
				return nil
			}
			reports.PrintReportTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect, export or delete a saved report",
	}
	cmd.AddCommand(newReportShowCmd(opts), newReportDeleteCmd(opts), newReportExportCmd(opts))
	return cmd
}

func newReportShowCmd(opts *rootOptions) *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a report in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sec reports.Section
			if section != "" {
				var err error
				if sec, err = parseSection(section); err != nil {
					return err
				}
			}
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			rep, err := rt.app.ReportList().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if section == "" {
				reports.RenderAll(cmd.OutOrStdout(), rep)
				return nil
			}
			reports.RenderSection(cmd.OutOrStdout(), rep, int(sec))
			return nil
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "Only this section, by number (1-6) or title")
	return cmd
}

func newReportDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a report after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()
			id := args[0]
			list := rt.app.ReportList()
			if _, err := list.Delete(ctx, id); err != nil {
				return err
			}
			if !yes {
				p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				answer, err := p.ask(fmt.Sprintf("Delete report %s? [y/N]: ", id))
				if err != nil || !strings.EqualFold(answer, "y") {
					list.Disarm()
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}
			out, err := list.Delete(ctx, id)
			if err != nil {
				return err
			}
			if out == reportlist.Deleted {
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newReportExportCmd(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			rep, err := rt.app.ReportList().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := reports.Export(rep, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write into")
	return cmd
}

func newReportHTMLCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		port   string
		serve  bool
	)
	cmd := &cobra.Command{
		Use:   "report-html <id>",
		Short: "Generate an HTML audit report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			rep, err := rt.app.ReportList().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := reports.BuildReportView(rep)
			if serve {
				return reports.ServeHTMLReport(view, output, port)
			}
			if err := reports.GenerateHTMLReport(view, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "HTML report written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "audit-report.html", "Output file")
	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port for --serve")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the report on localhost after writing it")
	return cmd
}
