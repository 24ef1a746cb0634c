package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// queryGraphQL posts a query to the GraphQL endpoint next to the REST base URL
// and decodes the data member into out.
func queryGraphQL(ctx context.Context, client *github.Client, query string, vars map[string]any, out any) error {
	req, err := client.NewRequest("POST", "graphql", graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to build graphql request: %w", err)
	}

	var resp graphQLResponse
	if _, err := client.Do(ctx, req, &resp); err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("graphql query returned errors: %s", strings.Join(msgs, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return errors.New("graphql query returned no data")
	}

	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

const overviewQuery = `query($ownedCursor: String, $contribCursor: String, $isFork: Boolean) {
  viewer {
    login
    name
    repositories(first: 100, orderBy: {field: UPDATED_AT, direction: DESC}, isFork: $isFork, after: $ownedCursor) {
      pageInfo { hasNextPage endCursor }
      nodes { ...repoFields }
    }
    repositoriesContributedTo(first: 100, includeUserRepositories: false, orderBy: {field: UPDATED_AT, direction: DESC}, contributionTypes: [COMMIT, PULL_REQUEST, REPOSITORY, PULL_REQUEST_REVIEW], after: $contribCursor) {
      pageInfo { hasNextPage endCursor }
      nodes { ...repoFields }
    }
  }
}

fragment repoFields on Repository {
  nameWithOwner
  stargazerCount
  forkCount
  languages(first: 10, orderBy: {field: SIZE, direction: DESC}) {
    edges { size node { name color } }
  }
}`

const contributionYearsQuery = `query {
  viewer {
    contributionsCollection { contributionYears }
  }
}`

const totalsQuery = `query {
  viewer {
    pullRequests(first: 1) { totalCount }
    issues(first: 1) { totalCount }
  }
}`

// contributionsByYearQuery aliases one contributionsCollection per year.
func contributionsByYearQuery(years []int) string {
	var b strings.Builder
	b.WriteString("query {\n  viewer {\n")
	for _, y := range years {
		fmt.Fprintf(&b,
			"    year%d: contributionsCollection(from: \"%d-01-01T00:00:00Z\", to: \"%d-01-01T00:00:00Z\") { contributionCalendar { totalContributions } }\n",
			y, y, y+1)
	}
	b.WriteString("  }\n}")
	return b.String()
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type repoNode struct {
	NameWithOwner  string `json:"nameWithOwner"`
	StargazerCount int    `json:"stargazerCount"`
	ForkCount      int    `json:"forkCount"`
	Languages      struct {
		Edges []struct {
			Size int64 `json:"size"`
			Node struct {
				Name  string  `json:"name"`
				Color *string `json:"color"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"languages"`
}

type repoConnection struct {
	PageInfo pageInfo   `json:"pageInfo"`
	Nodes    []repoNode `json:"nodes"`
}

type overviewData struct {
	Viewer struct {
		Login                     string         `json:"login"`
		Name                      string         `json:"name"`
		Repositories              repoConnection `json:"repositories"`
		RepositoriesContributedTo repoConnection `json:"repositoriesContributedTo"`
	} `json:"viewer"`
}

type contributionYearsData struct {
	Viewer struct {
		ContributionsCollection struct {
			ContributionYears []int `json:"contributionYears"`
		} `json:"contributionsCollection"`
	} `json:"viewer"`
}

type contributionsByYearData struct {
	Viewer map[string]struct {
		ContributionCalendar struct {
			TotalContributions int `json:"totalContributions"`
		} `json:"contributionCalendar"`
	} `json:"viewer"`
}

type totalsData struct {
	Viewer struct {
		PullRequests struct {
			TotalCount int `json:"totalCount"`
		} `json:"pullRequests"`
		Issues struct {
			TotalCount int `json:"totalCount"`
		} `json:"issues"`
	} `json:"viewer"`
}
