// Package generator renders every badge concurrently and writes the artifacts.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/UnitVectorY-Labs/statbadges/internal/render"
	"github.com/UnitVectorY-Labs/statbadges/internal/resolver"
	"github.com/UnitVectorY-Labs/statbadges/internal/stats"
)

// ErrBadgesFailed is returned in strict mode when any badge was not written.
var ErrBadgesFailed = errors.New("one or more badges failed")

// Options control a generation run.
type Options struct {
	OutputDir    string
	Templates    fs.FS
	FetchTimeout time.Duration
	// Strict makes Run return an error when any badge fails. Otherwise
	// failures are only reported.
	Strict bool
}

type generator struct {
	opts     Options
	resolver *resolver.Resolver
	log      logrus.FieldLogger
}

// Run generates every badge for p. Badges run concurrently and a failing
// badge never stops the others. A failed badge leaves any previous artifact
// in place.
func Run(ctx context.Context, opts Options, p stats.Provider, log logrus.FieldLogger) (*Report, error) {
	return RunBadges(ctx, opts, Badges(p), log)
}

// RunBadges generates the given badges.
func RunBadges(ctx context.Context, opts Options, badges []Badge, log logrus.FieldLogger) (*Report, error) {
	log = log.WithField("component", "generator")

	if opts.Templates == nil {
		return nil, errors.New("no template source configured")
	}

	// Ensure output directory exists
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	g := &generator{
		opts:     opts,
		resolver: resolver.New(opts.FetchTimeout, log),
		log:      log,
	}

	log.WithField("badges", len(badges)).Infof("Generating badges into %s", opts.OutputDir)

	results := make([]BadgeResult, len(badges))
	var eg errgroup.Group
	for i, b := range badges {
		i, b := i, b
		eg.Go(func() error {
			results[i] = g.generate(ctx, b)
			return nil
		})
	}
	_ = eg.Wait()

	report := &Report{Results: results}
	for _, res := range report.Results {
		entry := log.WithFields(logrus.Fields{
			"badge":    res.Name,
			"output":   res.Output,
			"duration": res.Duration.Round(time.Millisecond),
		})
		switch {
		case res.Err != nil:
			entry.WithError(res.Err).Error("badge generation failed")
		case len(res.Degraded) > 0:
			entry.WithField("fallbacks", res.Degraded).Warn("badge written with fallback values")
		default:
			entry.Info("badge written")
		}
	}

	if failed := report.Failed(); opts.Strict && len(failed) > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrBadgesFailed, len(failed), len(badges))
	}
	return report, nil
}

func (g *generator) generate(ctx context.Context, b Badge) (res BadgeResult) {
	start := time.Now()
	res = BadgeResult{
		Name:   b.Name,
		Output: filepath.Join(g.opts.OutputDir, b.Output),
	}
	defer func() { res.Duration = time.Since(start) }()

	tmpl, err := fs.ReadFile(g.opts.Templates, b.Template)
	if err != nil {
		res.Err = fmt.Errorf("failed to read template %s: %w", b.Template, err)
		return res
	}

	values := make(map[string]string)
	if len(b.Fields) > 0 {
		resolved := g.resolver.Resolve(ctx, b.Fields)
		for k, v := range resolved.Values {
			values[k] = v
		}
		for name := range resolved.Failures {
			res.Degraded = append(res.Degraded, name)
		}
		sort.Strings(res.Degraded)
	}

	if b.Derive != nil {
		derived, err := g.derive(ctx, b)
		if err != nil {
			res.Err = err
			return res
		}
		for k, v := range derived {
			values[k] = v
		}
	}

	output := render.Render(string(tmpl), values)
	res.Unresolved = render.Placeholders(output)
	if len(res.Unresolved) > 0 {
		g.log.WithFields(logrus.Fields{
			"badge":        b.Name,
			"placeholders": res.Unresolved,
		}).Debug("template has placeholders with no value")
	}

	if err := writeFileAtomic(res.Output, []byte(output)); err != nil {
		res.Err = err
	}
	return res
}

func (g *generator) derive(ctx context.Context, b Badge) (map[string]string, error) {
	if g.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.FetchTimeout)
		defer cancel()
	}

	type outcome struct {
		values map[string]string
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("badge %s panicked: %v", b.Name, p)}
			}
		}()
		values, err := b.Derive(ctx)
		done <- outcome{values: values, err: err}
	}()

	select {
	case o := <-done:
		return o.values, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("badge %s: %w", b.Name, ctx.Err())
	}
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers never see a partial artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
