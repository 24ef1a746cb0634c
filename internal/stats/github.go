package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/UnitVectorY-Labs/statbadges/internal/models"
)

// DefaultWorkerCount bounds the concurrent per-repository REST calls.
const DefaultWorkerCount = 10

// NewClient returns a GitHub client authenticated with a personal access token.
func NewClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// overview is the result of the repository query shared by several accessors.
type overview struct {
	name      string
	stars     int
	forks     int
	repos     []string
	languages map[string]models.LanguageStat
}

type totals struct {
	pullRequests int
	issues       int
}

// GitHub is a Provider backed by the GitHub GraphQL and REST APIs. Each
// underlying query runs at most once; accessors share its result.
type GitHub struct {
	client  *github.Client
	user    string
	filters models.Filters
	log     logrus.FieldLogger

	overview      lazy[*overview]
	contributions lazy[int]
	totals        lazy[totals]
	lines         lazy[models.LinesChanged]
	views         lazy[int]
}

var _ Provider = (*GitHub)(nil)

// NewGitHub creates a provider for user.
func NewGitHub(client *github.Client, user string, filters models.Filters, log logrus.FieldLogger) *GitHub {
	return &GitHub{
		client:  client,
		user:    user,
		filters: filters,
		log:     log.WithFields(logrus.Fields{"component": "stats", "user": user}),
	}
}

func (g *GitHub) getOverview(ctx context.Context) (*overview, error) {
	return g.overview.get(ctx, g.loadOverview)
}

// Name returns the display name, or the login when no name is set.
func (g *GitHub) Name(ctx context.Context) (string, error) {
	o, err := g.getOverview(ctx)
	if err != nil {
		return "", err
	}
	return o.name, nil
}

// Stargazers returns the total stars across the counted repositories.
func (g *GitHub) Stargazers(ctx context.Context) (int, error) {
	o, err := g.getOverview(ctx)
	if err != nil {
		return 0, err
	}
	return o.stars, nil
}

// Forks returns the total forks across the counted repositories.
func (g *GitHub) Forks(ctx context.Context) (int, error) {
	o, err := g.getOverview(ctx)
	if err != nil {
		return 0, err
	}
	return o.forks, nil
}

// Repos returns the counted repositories as owner/name.
func (g *GitHub) Repos(ctx context.Context) ([]string, error) {
	o, err := g.getOverview(ctx)
	if err != nil {
		return nil, err
	}
	return o.repos, nil
}

// Languages returns the language breakdown of the counted repositories.
func (g *GitHub) Languages(ctx context.Context) (map[string]models.LanguageStat, error) {
	o, err := g.getOverview(ctx)
	if err != nil {
		return nil, err
	}
	return o.languages, nil
}

// TotalContributions sums the contribution calendars of every active year.
func (g *GitHub) TotalContributions(ctx context.Context) (int, error) {
	return g.contributions.get(ctx, g.loadContributions)
}

// TotalPullRequests returns the number of pull requests opened by the user.
func (g *GitHub) TotalPullRequests(ctx context.Context) (int, error) {
	t, err := g.totals.get(ctx, g.loadTotals)
	return t.pullRequests, err
}

// TotalIssues returns the number of issues opened by the user.
func (g *GitHub) TotalIssues(ctx context.Context) (int, error) {
	t, err := g.totals.get(ctx, g.loadTotals)
	return t.issues, err
}

// LinesChanged returns the additions and deletions authored by the user.
func (g *GitHub) LinesChanged(ctx context.Context) (models.LinesChanged, error) {
	return g.lines.get(ctx, g.loadLines)
}

// Views returns the traffic views of the last 14 days across all repositories.
func (g *GitHub) Views(ctx context.Context) (int, error) {
	return g.views.get(ctx, g.loadViews)
}

func (g *GitHub) loadOverview(ctx context.Context) (*overview, error) {
	g.log.Debug("fetching repository overview")

	o := &overview{languages: make(map[string]models.LanguageStat)}
	seen := make(map[string]bool)

	var isFork *bool
	if g.filters.ExcludeForks {
		f := false
		isFork = &f
	}

	var ownedCursor, contribCursor *string
	ownedDone := false
	contribDone := g.filters.ExcludeContribs

	for {
		var data overviewData
		vars := map[string]any{
			"ownedCursor":   ownedCursor,
			"contribCursor": contribCursor,
			"isFork":        isFork,
		}
		if err := queryGraphQL(ctx, g.client, overviewQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("failed to fetch repository overview: %w", err)
		}

		v := data.Viewer
		o.name = v.Name
		if o.name == "" {
			o.name = v.Login
		}

		if !ownedDone {
			g.addRepos(o, seen, v.Repositories.Nodes)
		}
		if !contribDone {
			g.addRepos(o, seen, v.RepositoriesContributedTo.Nodes)
		}

		if !ownedDone {
			if v.Repositories.PageInfo.HasNextPage {
				c := v.Repositories.PageInfo.EndCursor
				ownedCursor = &c
			} else {
				ownedDone = true
			}
		}
		if !contribDone {
			if v.RepositoriesContributedTo.PageInfo.HasNextPage {
				c := v.RepositoriesContributedTo.PageInfo.EndCursor
				contribCursor = &c
			} else {
				contribDone = true
			}
		}

		if ownedDone && contribDone {
			break
		}
	}

	var total int64
	for _, l := range o.languages {
		total += l.Size
	}
	for name, l := range o.languages {
		if total > 0 {
			l.Proportion = 100 * float64(l.Size) / float64(total)
		}
		o.languages[name] = l
	}

	sort.Strings(o.repos)
	g.log.WithFields(logrus.Fields{
		"repos":     len(o.repos),
		"languages": len(o.languages),
	}).Info("fetched repository overview")

	return o, nil
}

func (g *GitHub) addRepos(o *overview, seen map[string]bool, nodes []repoNode) {
	for _, repo := range nodes {
		name := repo.NameWithOwner
		if name == "" || seen[name] || g.filters.ExcludedRepos[name] {
			continue
		}
		seen[name] = true
		o.repos = append(o.repos, name)
		o.stars += repo.StargazerCount
		o.forks += repo.ForkCount

		for _, edge := range repo.Languages.Edges {
			lang := edge.Node.Name
			if g.filters.ExcludedLanguages[strings.ToLower(lang)] {
				continue
			}
			stat := o.languages[lang]
			stat.Size += edge.Size
			if stat.Color == nil {
				stat.Color = edge.Node.Color
			}
			o.languages[lang] = stat
		}
	}
}

func (g *GitHub) loadContributions(ctx context.Context) (int, error) {
	var years contributionYearsData
	if err := queryGraphQL(ctx, g.client, contributionYearsQuery, nil, &years); err != nil {
		return 0, fmt.Errorf("failed to fetch contribution years: %w", err)
	}

	list := years.Viewer.ContributionsCollection.ContributionYears
	if len(list) == 0 {
		return 0, nil
	}

	var byYear contributionsByYearData
	if err := queryGraphQL(ctx, g.client, contributionsByYearQuery(list), nil, &byYear); err != nil {
		return 0, fmt.Errorf("failed to fetch contributions: %w", err)
	}

	total := 0
	for _, y := range byYear.Viewer {
		total += y.ContributionCalendar.TotalContributions
	}
	return total, nil
}

func (g *GitHub) loadTotals(ctx context.Context) (totals, error) {
	var data totalsData
	if err := queryGraphQL(ctx, g.client, totalsQuery, nil, &data); err != nil {
		return totals{}, fmt.Errorf("failed to fetch pull request and issue totals: %w", err)
	}
	return totals{
		pullRequests: data.Viewer.PullRequests.TotalCount,
		issues:       data.Viewer.Issues.TotalCount,
	}, nil
}

func (g *GitHub) loadLines(ctx context.Context) (models.LinesChanged, error) {
	var mu sync.Mutex
	var lines models.LinesChanged

	err := g.eachRepo(ctx, "contributor stats", func(ctx context.Context, owner, name string) error {
		contributors, _, err := g.client.Repositories.ListContributorsStats(ctx, owner, name)
		if err != nil {
			return err
		}
		var added, deleted int
		for _, c := range contributors {
			if !strings.EqualFold(c.GetAuthor().GetLogin(), g.user) {
				continue
			}
			for _, w := range c.Weeks {
				added += w.GetAdditions()
				deleted += w.GetDeletions()
			}
		}
		mu.Lock()
		lines.Added += added
		lines.Deleted += deleted
		mu.Unlock()
		return nil
	})
	return lines, err
}

func (g *GitHub) loadViews(ctx context.Context) (int, error) {
	var mu sync.Mutex
	total := 0

	err := g.eachRepo(ctx, "traffic views", func(ctx context.Context, owner, name string) error {
		views, _, err := g.client.Repositories.ListTrafficViews(ctx, owner, name, nil)
		if err != nil {
			return err
		}
		mu.Lock()
		total += views.GetCount()
		mu.Unlock()
		return nil
	})
	return total, err
}

// eachRepo calls fn for every counted repository with at most
// DefaultWorkerCount calls in flight. A repository whose call fails is
// skipped; the pass fails only when every repository failed.
func (g *GitHub) eachRepo(ctx context.Context, what string, fn func(ctx context.Context, owner, name string) error) error {
	repos, err := g.Repos(ctx)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	failed := 0
	var lastErr error

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultWorkerCount)
	for _, full := range repos {
		full := full
		owner, name, ok := strings.Cut(full, "/")
		if !ok {
			continue
		}
		eg.Go(func() error {
			err := fn(egCtx, owner, name)
			if err == nil {
				return nil
			}

			var accepted *github.AcceptedError
			if errors.As(err, &accepted) {
				g.log.WithField("repo", full).Debugf("%s still being computed, skipping", what)
				return nil
			}
			if ctxErr := egCtx.Err(); ctxErr != nil {
				return ctxErr
			}

			g.log.WithField("repo", full).WithError(err).Debugf("failed to fetch %s", what)
			mu.Lock()
			failed++
			lastErr = err
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}

	if len(repos) > 0 && failed == len(repos) {
		return fmt.Errorf("failed to fetch %s for every repository: %w", what, lastErr)
	}
	return nil
}
