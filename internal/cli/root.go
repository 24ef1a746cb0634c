// Package cli defines the statbadges command tree.
package cli

import (
	"context"
	"io/fs"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/UnitVectorY-Labs/statbadges/internal/config"
	"github.com/UnitVectorY-Labs/statbadges/internal/stats"
)

type app struct {
	templates fs.FS
	lookupEnv func(string) (string, bool)
	// newProvider is called only after the credential and user are validated.
	newProvider func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) stats.Provider
	log         *logrus.Logger

	cfgFile      string
	outputDir    string
	templatesDir string
	readmePath   string
	timeout      time.Duration
	strict       bool
	verbose      bool
}

func githubProvider(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) stats.Provider {
	return stats.NewGitHub(stats.NewClient(ctx, cfg.Token), cfg.User, cfg.Filters, log)
}

// NewRootCommand builds the command tree. templates holds the default
// badge templates.
func NewRootCommand(templates fs.FS) *cobra.Command {
	a := &app{
		templates:   templates,
		lookupEnv:   os.LookupEnv,
		newProvider: githubProvider,
	}
	return a.rootCommand()
}

// Execute runs the root command.
func Execute(templates fs.FS) error {
	return NewRootCommand(templates).Execute()
}

func (a *app) rootCommand() *cobra.Command {
	generate := a.generateCommand()

	root := &cobra.Command{
		Use:   "statbadges",
		Short: "Generate GitHub statistics badges",
		Long: `statbadges renders SVG badges summarizing a GitHub user's activity.

Running without a subcommand is the same as 'statbadges generate'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			if a.log == nil {
				a.log = newLogger(a.verbose)
			}
			return nil
		},
		RunE: a.runGenerate,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "settings file (default is ./"+config.DefaultSettingsFile+")")
	flags.StringVarP(&a.outputDir, "output", "o", "", "directory for generated badges")
	flags.StringVar(&a.readmePath, "readme", "", "README checked for badge references")
	flags.BoolVar(&a.strict, "strict", false, "exit non-zero when any badge fails")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	a.generateFlags(root.Flags())

	root.AddCommand(generate)
	root.AddCommand(a.checkCommand())
	return root
}

func (a *app) generateFlags(flags *pflag.FlagSet) {
	flags.StringVar(&a.templatesDir, "templates", "", "directory with overview.svg and languages.svg (default: built-in)")
	flags.DurationVar(&a.timeout, "timeout", 0, "timeout for each statistic fetch (default 30s)")
}

// settings loads the settings file and applies flag overrides.
func (a *app) settings(cmd *cobra.Command) (config.Settings, error) {
	s, err := config.LoadSettings(a.cfgFile)
	if err != nil {
		return s, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		s.OutputDir = a.outputDir
	}
	if flags.Changed("templates") {
		s.TemplatesDir = a.templatesDir
	}
	if flags.Changed("timeout") {
		s.FetchTimeout = a.timeout
	}
	if flags.Changed("readme") {
		s.Readme = a.readmePath
	}
	if flags.Changed("strict") {
		s.Strict = a.strict
	}
	return s, nil
}
