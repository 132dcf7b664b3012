package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"auditai/pkg/api"
	"auditai/pkg/config"
	"auditai/pkg/logging"
	"auditai/pkg/session"
	"auditai/pkg/shell"
	"auditai/pkg/wizard"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNotLoggedIn = errors.New("not logged in, run `auditai login` first")

type rootOptions struct {
	apiURL  string
	verbose bool
}

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	client  *api.Client
	storage *session.FileStorage
	store   *session.Store
	app     *shell.App
}

func (o *rootOptions) load() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.apiURL != "" {
		cfg.APIURL = strings.TrimRight(o.apiURL, "/")
	}

	log, err := logging.New(o.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	client := api.NewClient(cfg.APIURL, api.WithLogger(log))
	storage := session.NewFileStorage(cfg.SessionFile)
	store := session.NewStore(client, storage, log)
	client.SetTokenSource(store)
	store.Load()

	log.Debugw("runtime ready", "api_url", client.BaseURL(), "session_file", storage.Path(), "env", cfg.Environment)
	return &runtime{
		cfg:     cfg,
		log:     log,
		client:  client,
		storage: storage,
		store:   store,
		app:     shell.New(store, client, wizard.NewPacer(cfg.ProgressDelay), log),
	}, nil
}

// requireSession fails commands that need a bearer token.
func (rt *runtime) requireSession() error {
	if _, ok := rt.store.Current(); !ok {
		return errNotLoggedIn
	}
	if c, ok := rt.store.Claims(); ok && c.Expired(time.Now()) {
		rt.log.Warnw("stored token has expired, log in again if requests are rejected", "email", c.Email)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "auditai",
		Short: "AuditAI is a compliance audit client for AI models",
		Long: `AuditAI scores AI models against seven risk dimensions and maps the results
to the EU AI Act, NIST AI RMF, GDPR and ISO/IEC 42001.
Run without a subcommand to start the interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			return runShell(cmd, rt)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Backend base URL (overrides AUDITAI_API_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newHealthCmd(opts),
		newAuditCmd(opts),
		newSampleCmd(opts),
		newReportsCmd(opts),
		newReportCmd(opts),
		newReportHTMLCmd(opts),
		newFrameworksCmd(),
	)
	return cmd
}

var rootCmd = newRootCmd()

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
