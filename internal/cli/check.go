package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/UnitVectorY-Labs/statbadges/internal/generator"
	"github.com/UnitVectorY-Labs/statbadges/internal/readme"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the README embeds the generated badges",
		Long: `Parses the README and reports, for each generated badge, whether an image
pointing at it is embedded. Missing badges are warnings unless --strict is set.`,
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	settings, err := a.settings(cmd)
	if err != nil {
		return err
	}

	log := a.log.WithField("component", "readme")
	refs, err := readme.CheckFile(settings.Readme, generator.Artifacts(settings.OutputDir))
	if err != nil {
		return err
	}

	missing := 0
	for _, ref := range refs {
		if ref.Found {
			log.WithField("artifact", ref.Artifact).Infof("embedded %d time(s)", len(ref.Images))
			continue
		}
		missing++
		log.WithField("artifact", ref.Artifact).Warn("badge is not embedded in the README")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Checked %s. Embedded: %d, Missing: %d\n", settings.Readme, len(refs)-missing, missing)
	if settings.Strict && missing > 0 {
		return fmt.Errorf("%d badge(s) missing from %s", missing, settings.Readme)
	}
	return nil
}
