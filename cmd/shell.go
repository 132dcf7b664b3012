package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"auditai/pkg/auth"
	"auditai/pkg/frameworks"
	"auditai/pkg/reportlist"
	"auditai/pkg/reports"
	"auditai/pkg/riskposture"
	"auditai/pkg/shell"
	"auditai/pkg/wizard"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// errQuit ends the interactive loop without an error exit.
var errQuit = errors.New("quit")

type console struct {
	ctx context.Context
	rt  *runtime
	p   *prompter
	out io.Writer
}

func runShell(cmd *cobra.Command, rt *runtime) error {
	c := &console{
		ctx: cmd.Context(),
		rt:  rt,
		p:   newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out: cmd.OutOrStdout(),
	}
	color.New(color.BgHiCyan).Fprintln(c.out, "Starting AuditAI...")

	probed := false
	for {
		var err error
		switch rt.app.Screen() {
		case shell.ScreenAuth:
			if !probed {
				fmt.Fprintf(c.out, "Backend %s ", rt.client.BaseURL())
				printHealth(c.out, rt.app.Auth.ProbeHealth(c.ctx))
				probed = true
			}
			err = c.authMenu()
		case shell.ScreenReport:
			err = c.reportScreen()
		case shell.ScreenReports:
			err = c.reportsScreen()
		case shell.ScreenFrameworks:
			err = c.frameworksScreen()
		default:
			err = c.mainMenu()
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			if werr := rt.app.Wait(); werr != nil {
				rt.log.Warnw("background refresh failed", "error", werr)
			}
			fmt.Fprintln(c.out, "Bye")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *console) fail(err error) {
	color.New(color.FgRed).Fprintf(c.out, "Error: %v\n", err)
}

func (c *console) authMenu() error {
	screen := c.rt.app.Auth
	color.New(color.BgHiRed).Fprintln(c.out, "Please select an option:")
	color.New(color.FgBlue).Fprintln(c.out, "1. Log in")
	color.New(color.FgGreen).Fprintln(c.out, "2. Register")
	color.New(color.FgRed).Fprintln(c.out, "q. Quit")
	choice, err := c.p.ask("> ")
	if err != nil {
		return err
	}

	var cred credentials
	switch choice {
	case "1":
		screen.SetMode(auth.ModeLogin)
		err = fillCredentials(c.p, &cred, false)
	case "2":
		screen.SetMode(auth.ModeRegister)
		err = fillCredentials(c.p, &cred, true)
	case "q":
		return errQuit
	default:
		fmt.Fprintln(c.out, "Invalid option")
		return nil
	}
	if err != nil {
		return err
	}

	screen.SetCredentials(cred.orgName, cred.email, cred.password)
	if err := screen.Submit(c.ctx); err != nil {
		c.fail(err)
		return nil
	}
	color.New(color.FgGreen).Fprintf(c.out, "Welcome, %s\n", cred.email)
	return nil
}

func (c *console) mainMenu() error {
	app := c.rt.app
	if sess, ok := app.Session.Current(); ok {
		color.New(color.FgHiBlack).Fprintf(c.out, "Signed in as %s\n", sess.User.Email)
	}
	color.New(color.BgHiRed).Fprintln(c.out, "Please select an option:")
	color.New(color.FgBlue).Fprintln(c.out, "1. New audit")
	color.New(color.FgGreen).Fprintln(c.out, "2. Saved reports")
	color.New(color.FgYellow).Fprintln(c.out, "3. Frameworks reference")
	if app.CurrentReport() != nil {
		color.New(color.FgCyan).Fprintln(c.out, "4. Current report")
	}
	color.New(color.FgRed).Fprintln(c.out, "5. Log out")
	fmt.Fprintln(c.out, "q. Quit")
	choice, err := c.p.ask("> ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		if err := app.Navigate(shell.ScreenAudit); err != nil {
			return err
		}
		return c.auditScreen()
	case "2":
		return app.Navigate(shell.ScreenReports)
	case "3":
		return app.Navigate(shell.ScreenFrameworks)
	case "4":
		if err := app.Navigate(shell.ScreenReport); err != nil {
			c.fail(err)
		}
		return nil
	case "5":
		if err := app.Logout(); err != nil {
			c.fail(err)
		}
		return nil
	case "q":
		return errQuit
	}
	fmt.Fprintln(c.out, "Invalid option")
	return nil
}

func (c *console) auditScreen() error {
	w := c.rt.app.Wizard()
	ask := func(label, def string) (string, error) {
		if def != "" {
			label = fmt.Sprintf("%s [%s]", label, def)
		}
		answer, err := c.p.ask(label + ": ")
		return orDefault(answer, def), err
	}

	if w.Form.OrgName == "" {
		if sess, ok := c.rt.app.Session.Current(); ok {
			w.Form.OrgName = sess.User.OrgName
		}
	}
	fields := []struct {
		label string
		value *string
	}{
		{"Model name", &w.Form.ModelName},
		{"Model version", &w.Form.ModelVersion},
		{"Organisation", &w.Form.OrgName},
		{"Use case", &w.Form.UseCase},
		{"Training data", &w.Form.TrainingData},
		{"Human oversight policy", &w.Form.OversightPolicy},
		{"Incident response policy", &w.Form.IncidentPolicy},
	}
	for _, f := range fields {
		answer, err := ask(f.label, *f.value)
		if err != nil {
			return err
		}
		*f.value = answer
	}
	env, err := ask("Deployment ("+strings.Join(wizard.DeployEnvs, "/")+")", w.Form.DeployEnv)
	if err != nil {
		return err
	}
	if err := w.Form.SetDeployEnv(env); err != nil {
		c.fail(err)
	}
	fw, err := ask("Framework ("+strings.Join(wizard.Frameworks, "/")+")", w.Form.Framework)
	if err != nil {
		return err
	}
	if err := w.Form.SetFramework(fw); err != nil {
		c.fail(err)
	}

	path, err := c.p.ask("Upload file (CSV/JSON, blank for manual metrics): ")
	if err != nil {
		return err
	}
	if path != "" {
		if err := c.upload(w, path); err != nil {
			c.fail(err)
			return nil
		}
	} else if err := c.manualMetrics(w); err != nil {
		return err
	}

	if !w.CanGenerate() {
		c.fail(wizard.ErrModelNameRequired)
		return nil
	}
	w.OnStep = printProgress(c.out)
	if _, err := c.rt.app.Generate(c.ctx); err != nil {
		c.fail(err)
	}
	return nil
}

func (c *console) upload(w *wizard.Wizard, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	res, err := w.Upload(c.ctx, path, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Scored %d rows from %s\n", res.RowCount, res.Filename)
	printMetrics(c.out, w.Metrics)
	return nil
}

func (c *console) manualMetrics(w *wizard.Wizard) error {
	w.SetTab(wizard.TabManual)
	for _, key := range riskposture.MetricKeys {
		label := fmt.Sprintf("%s [%.2f %s]: ", riskposture.Label(key), w.Metrics.Get(key), riskposture.Badge(w.Metrics.Level(key)))
		answer, err := c.p.ask(label)
		if err != nil {
			return err
		}
		if answer == "" {
			continue
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			c.fail(fmt.Errorf("%q is not a number, keeping %.2f", answer, w.Metrics.Get(key)))
			continue
		}
		_ = w.Metrics.Set(key, v)
	}
	return nil
}

func (c *console) reportScreen() error {
	app := c.rt.app
	rep := app.CurrentReport()
	reports.RenderSection(c.out, rep, int(app.Section()))
	fmt.Fprintln(c.out, "[n]ext [p]rev [1-6] section  [e]xport JSON  [h]tml  [b]ack")
	choice, err := c.p.ask("> ")
	if err != nil {
		return err
	}

	switch choice {
	case "n":
		app.SetSection(int(app.Section()) + 1)
	case "p":
		app.SetSection(int(app.Section()) - 1)
	case "e":
		path, err := reports.Export(rep, ".")
		if err != nil {
			c.fail(err)
			return nil
		}
		fmt.Fprintf(c.out, "Exported to %s\n", path)
	case "h":
		out := strings.TrimSuffix(reports.ExportFilename(rep), ".json") + ".html"
		if err := reports.GenerateHTMLReport(reports.BuildReportView(rep), out); err != nil {
			c.fail(err)
			return nil
		}
		fmt.Fprintf(c.out, "HTML report written to %s\n", out)
	case "b":
		return app.Navigate(shell.ScreenAudit)
	default:
		if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= reports.SectionCount {
			app.SetSection(n - 1)
			return nil
		}
		fmt.Fprintln(c.out, "Invalid option")
	}
	return nil
}

func (c *console) reportsScreen() error {
	app := c.rt.app
	list := app.ReportList()
	if err := list.Load(c.ctx); err != nil {
		c.fail(err)
		return app.Navigate(shell.ScreenAudit)
	}

	rows := list.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "No reports yet.")
	}
	for i, r := range rows {
		marker := "  "
		if r.ID == list.ArmedID() {
			marker = color.RedString("! ")
		}
		fmt.Fprintf(c.out, "%s%d. %-24s %s %d%%\n", marker, i+1, r.ModelName,
			riskposture.Badge(riskposture.ParseLevel(r.OverallRisk)), r.ReadinessPct)
	}
	if list.ArmedID() != "" {
		color.New(color.FgRed).Fprintln(c.out, "Press d again on the marked row to confirm deletion.")
	}
	fmt.Fprintln(c.out, "o <n> open  d <n> delete  r reload  b back")
	choice, err := c.p.ask("> ")
	if err != nil {
		return err
	}

	verb, arg, _ := strings.Cut(choice, " ")
	row := func() (string, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n < 1 || n > len(rows) {
			fmt.Fprintln(c.out, "Invalid row")
			return "", false
		}
		return rows[n-1].ID, true
	}

	switch verb {
	case "o":
		if id, ok := row(); ok {
			if _, err := app.OpenReport(c.ctx, id); err != nil {
				c.fail(err)
			}
		}
	case "d":
		if id, ok := row(); ok {
			out, err := list.Delete(c.ctx, id)
			switch {
			case err != nil:
				c.fail(err)
			case out == reportlist.Deleted:
				color.New(color.FgGreen).Fprintln(c.out, "Deleted")
			}
		}
	case "r":
		if err := list.Reload(c.ctx); err != nil {
			c.fail(err)
		}
	case "b":
		return app.Navigate(shell.ScreenAudit)
	default:
		list.Disarm()
		fmt.Fprintln(c.out, "Invalid option")
	}
	return nil
}

func (c *console) frameworksScreen() error {
	sel := c.rt.app.Frameworks
	frameworks.PrintIndex(c.out)
	fmt.Fprintln(c.out)
	frameworks.PrintDetail(c.out, sel.Selected())
	fmt.Fprintln(c.out, "Choose 1-4 or an id, b to go back")
	choice, err := c.p.ask("> ")
	if err != nil {
		return err
	}
	if choice == "b" {
		return c.rt.app.Navigate(shell.ScreenAudit)
	}
	if n, err := strconv.Atoi(choice); err == nil {
		all := frameworks.All()
		if n >= 1 && n <= len(all) {
			choice = all[n-1].ID
		}
	}
	if err := sel.Select(choice); err != nil {
		c.fail(err)
	}
	return nil
}
