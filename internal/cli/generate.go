package cli

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/UnitVectorY-Labs/statbadges/internal/config"
	"github.com/UnitVectorY-Labs/statbadges/internal/generator"
)

func (a *app) generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch statistics and write the badges",
		Long: `Fetches the user's statistics from GitHub and writes overview.svg and
languages.svg to the output directory.

Required environment:
  ACCESS_TOKEN            personal access token
  GITHUB_ACTOR            user the badges describe

Optional environment:
  EXCLUDED                comma-separated owner/name repositories to skip
  EXCLUDED_LANGS          comma-separated languages to skip
  EXCLUDE_FORKED_REPOS    skip forks unless set to "false"
  EXCLUDE_CONTRIBS        skip repositories only contributed to unless set to "false"
                          (EXCLUDE_CONTRIBUTED is read when unset)`,
		Example: `  # Generate into ./generated
  ACCESS_TOKEN=... GITHUB_ACTOR=octocat statbadges generate

  # Use custom templates and fail the run if a badge fails
  statbadges generate --templates ./my-templates --strict`,
		RunE: a.runGenerate,
	}
	a.generateFlags(cmd.Flags())
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	settings, err := a.settings(cmd)
	if err != nil {
		return err
	}

	// Preconditions are checked before any network call or file write.
	cfg, err := config.Load(settings, a.lookupEnv)
	if err != nil {
		return err
	}
	a.log.Debug(cfg.String())

	templates, err := a.templateFS(cfg.TemplatesDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := a.newProvider(ctx, cfg, a.log)
	report, err := generator.Run(ctx, generator.Options{
		OutputDir:    cfg.OutputDir,
		Templates:    templates,
		FetchTimeout: cfg.FetchTimeout,
		Strict:       cfg.Strict,
	}, provider, a.log)
	if err != nil {
		return err
	}

	written := len(report.Results) - len(report.Failed())
	fmt.Fprintf(cmd.OutOrStdout(), "Generation complete. Written: %d, Failed: %d\n", written, len(report.Failed()))
	return nil
}

func (a *app) templateFS(dir string) (fs.FS, error) {
	if dir == "" {
		if a.templates == nil {
			return nil, fmt.Errorf("no built-in templates available, use --templates")
		}
		return a.templates, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates path %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}
