package generator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/UnitVectorY-Labs/statbadges/internal/models"
	"github.com/UnitVectorY-Labs/statbadges/internal/render"
	"github.com/UnitVectorY-Labs/statbadges/internal/resolver"
	"github.com/UnitVectorY-Labs/statbadges/internal/stats"
)

// Badge names.
const (
	OverviewBadge  = "overview"
	LanguagesBadge = "languages"
)

// Artifact file names, shared by template and output.
const (
	OverviewFile  = "overview.svg"
	LanguagesFile = "languages.svg"
)

// Values substituted when a field cannot be fetched.
const (
	FallbackName  = "Unknown"
	FallbackCount = "0"
	FallbackLines = "N/A"
)

// Badge defines one generated artifact.
type Badge struct {
	Name     string
	Template string
	Output   string

	// Fields are resolved with per-field fallbacks.
	Fields []resolver.Field
	// Derive computes placeholders that have no fallback. An error fails
	// the whole badge.
	Derive func(ctx context.Context) (map[string]string, error)
}

// Badges returns the badge definitions bound to p. They are built fresh
// for every run.
func Badges(p stats.Provider) []Badge {
	return []Badge{
		{
			Name:     OverviewBadge,
			Template: OverviewFile,
			Output:   OverviewFile,
			Fields:   OverviewFields(p),
		},
		{
			Name:     LanguagesBadge,
			Template: LanguagesFile,
			Output:   LanguagesFile,
			Derive: func(ctx context.Context) (map[string]string, error) {
				return languageBlocks(ctx, p)
			},
		},
	}
}

// Artifacts returns the path of every badge artifact under outputDir.
func Artifacts(outputDir string) []string {
	return []string{
		filepath.Join(outputDir, OverviewFile),
		filepath.Join(outputDir, LanguagesFile),
	}
}

// OverviewFields lists the summary statistics keyed by their placeholder name.
func OverviewFields(p stats.Provider) []resolver.Field {
	text := func(s string) string { return s }

	return []resolver.Field{
		resolver.NewField("name", p.Name, text, FallbackName),
		resolver.NewField("stars", p.Stargazers, render.Count, FallbackCount),
		resolver.NewField("forks", p.Forks, render.Count, FallbackCount),
		resolver.NewField("contributions", p.TotalContributions, render.Count, FallbackCount),
		resolver.NewField("lines_changed", p.LinesChanged, func(l models.LinesChanged) string {
			return render.Count(l.Total())
		}, FallbackLines),
		resolver.NewField("views", p.Views, render.Count, FallbackCount),
		resolver.NewField("repos", p.Repos, func(r []string) string {
			return render.Count(len(r))
		}, FallbackCount),
		resolver.NewField("pull_requests", p.TotalPullRequests, render.Count, FallbackCount),
		resolver.NewField("issues", p.TotalIssues, render.Count, FallbackCount),
	}
}

func languageBlocks(ctx context.Context, p stats.Provider) (map[string]string, error) {
	langs, err := p.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch languages: %w", err)
	}

	entries := models.SortLanguages(langs)
	return map[string]string{
		"progress":  render.ProgressBar(entries),
		"lang_list": render.LanguageList(entries),
	}, nil
}
