// Package stats fetches a user's activity statistics.
package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/UnitVectorY-Labs/statbadges/internal/models"
)

// Provider supplies each statistic independently. Any accessor may fail
// without affecting the others.
type Provider interface {
	Name(ctx context.Context) (string, error)
	Stargazers(ctx context.Context) (int, error)
	Forks(ctx context.Context) (int, error)
	TotalContributions(ctx context.Context) (int, error)
	LinesChanged(ctx context.Context) (models.LinesChanged, error)
	Views(ctx context.Context) (int, error)
	Repos(ctx context.Context) ([]string, error)
	TotalPullRequests(ctx context.Context) (int, error)
	TotalIssues(ctx context.Context) (int, error)
	Languages(ctx context.Context) (map[string]models.LanguageStat, error)
}

// lazy runs load at most once and hands the same value and error to every
// caller. The load runs under the first caller's context, so if that context
// expires the resulting error is kept for the rest of the run. Later callers
// stop waiting when their own context is done.
type lazy[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func (l *lazy[T]) get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	l.once.Do(func() {
		l.done = make(chan struct{})
		go func() {
			defer close(l.done)
			defer func() {
				if p := recover(); p != nil {
					l.err = fmt.Errorf("load panicked: %v", p)
				}
			}()
			l.val, l.err = load(ctx)
		}()
	})

	select {
	case <-l.done:
		return l.val, l.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
