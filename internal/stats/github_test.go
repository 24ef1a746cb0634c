package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnitVectorY-Labs/statbadges/internal/models"
)

const overviewResponse = `{"data":{"viewer":{
  "login":"octocat","name":"The Octocat",
  "repositories":{"pageInfo":{"hasNextPage":false,"endCursor":"o1"},"nodes":[
    {"nameWithOwner":"octocat/hello","stargazerCount":1200,"forkCount":30,
     "languages":{"edges":[
       {"size":300,"node":{"name":"Go","color":"#00ADD8"}},
       {"size":100,"node":{"name":"HTML","color":"#e34c26"}}]}},
    {"nameWithOwner":"octocat/secret","stargazerCount":5000,"forkCount":500,
     "languages":{"edges":[{"size":999,"node":{"name":"Rust","color":"#dea584"}}]}}
  ]},
  "repositoriesContributedTo":{"pageInfo":{"hasNextPage":false,"endCursor":"c1"},"nodes":[
    {"nameWithOwner":"other/lib","stargazerCount":34,"forkCount":2,
     "languages":{"edges":[{"size":100,"node":{"name":"Shell","color":null}}]}},
    {"nameWithOwner":"octocat/hello","stargazerCount":1200,"forkCount":30,"languages":{"edges":[]}}
  ]}
}}}`

type fakeGitHub struct {
	overviewCalls int32
	failOverview  bool
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode graphql request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch {
		case strings.Contains(req.Query, "repositoriesContributedTo"):
			atomic.AddInt32(&f.overviewCalls, 1)
			if f.failOverview {
				fmt.Fprint(w, `{"data":null,"errors":[{"message":"rate limited"}]}`)
				return
			}
			fmt.Fprint(w, overviewResponse)
		case strings.Contains(req.Query, "contributionYears"):
			fmt.Fprint(w, `{"data":{"viewer":{"contributionsCollection":{"contributionYears":[2024,2023]}}}}`)
		case strings.Contains(req.Query, "contributionCalendar"):
			assert.Contains(t, req.Query, `year2023: contributionsCollection(from: "2023-01-01T00:00:00Z", to: "2024-01-01T00:00:00Z")`)
			fmt.Fprint(w, `{"data":{"viewer":{
			  "year2024":{"contributionCalendar":{"totalContributions":1000}},
			  "year2023":{"contributionCalendar":{"totalContributions":234}}}}}`)
		case strings.Contains(req.Query, "pullRequests"):
			fmt.Fprint(w, `{"data":{"viewer":{"pullRequests":{"totalCount":77},"issues":{"totalCount":12}}}}`)
		default:
			t.Errorf("unexpected graphql query: %s", req.Query)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	mux.HandleFunc("/repos/octocat/hello/stats/contributors", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
		  {"author":{"login":"someone"},"weeks":[{"a":1000,"d":1000}]},
		  {"author":{"login":"OctoCat"},"weeks":[{"a":10,"d":5},{"a":20,"d":1}]}]`)
	})
	mux.HandleFunc("/repos/octocat/secret/stats/contributors", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/repos/other/lib/stats/contributors", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"author":{"login":"octocat"},"weeks":[{"a":3,"d":4}]}]`)
	})

	mux.HandleFunc("/repos/octocat/hello/traffic/views", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"count":140,"uniques":20,"views":[]}`)
	})
	mux.HandleFunc("/repos/octocat/secret/traffic/views", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"count":60,"uniques":2,"views":[]}`)
	})
	mux.HandleFunc("/repos/other/lib/traffic/views", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Must have push access to repository"}`)
	})

	return mux
}

func newTestProvider(t *testing.T, fake *fakeGitHub, filters models.Filters) *GitHub {
	t.Helper()

	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewGitHub(client, "octocat", filters, log)
}

func TestGitHub_Overview(t *testing.T) {
	t.Parallel()

	fake := &fakeGitHub{}
	p := newTestProvider(t, fake, models.Filters{})
	ctx := context.Background()

	name, err := p.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "The Octocat", name)

	stars, err := p.Stargazers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6234, stars)

	forks, err := p.Forks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 532, forks)

	repos, err := p.Repos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat/hello", "octocat/secret", "other/lib"}, repos)

	langs, err := p.Languages(ctx)
	require.NoError(t, err)
	require.Len(t, langs, 4)
	assert.Equal(t, int64(300), langs["Go"].Size)
	assert.InDelta(t, 100*300.0/1499, langs["Go"].Proportion, 1e-9)
	assert.Nil(t, langs["Shell"].Color)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.overviewCalls))
}

func TestGitHub_Filters(t *testing.T) {
	t.Parallel()

	fake := &fakeGitHub{}
	p := newTestProvider(t, fake, models.Filters{
		ExcludedRepos:     map[string]bool{"octocat/secret": true},
		ExcludedLanguages: map[string]bool{"html": true},
		ExcludeContribs:   true,
	})
	ctx := context.Background()

	repos, err := p.Repos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat/hello"}, repos)

	stars, err := p.Stargazers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1200, stars)

	langs, err := p.Languages(ctx)
	require.NoError(t, err)
	require.Len(t, langs, 1)
	assert.InDelta(t, 100.0, langs["Go"].Proportion, 1e-9)
}

func TestGitHub_Totals(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, &fakeGitHub{}, models.Filters{})
	ctx := context.Background()

	contributions, err := p.TotalContributions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1234, contributions)

	prs, err := p.TotalPullRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 77, prs)

	issues, err := p.TotalIssues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, issues)
}

func TestGitHub_PerRepoStats(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, &fakeGitHub{}, models.Filters{})
	ctx := context.Background()

	lines, err := p.LinesChanged(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.LinesChanged{Added: 33, Deleted: 10}, lines)
	assert.Equal(t, 43, lines.Total())

	views, err := p.Views(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, views)
}

func TestGitHub_OverviewFailureIsShared(t *testing.T) {
	t.Parallel()

	fake := &fakeGitHub{failOverview: true}
	p := newTestProvider(t, fake, models.Filters{})
	ctx := context.Background()

	_, err := p.Stargazers(ctx)
	require.ErrorContains(t, err, "rate limited")

	_, err = p.Languages(ctx)
	require.Error(t, err)

	_, err = p.Views(ctx)
	require.Error(t, err)

	prs, err := p.TotalPullRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 77, prs)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.overviewCalls))
}
