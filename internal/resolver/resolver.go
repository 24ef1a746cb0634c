// Package resolver resolves independently fallible metric fields into
// display strings. A failing field takes its fallback and never affects
// the other fields of the same pass.
package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Fetch produces a raw value for a field.
type Fetch[T any] func(ctx context.Context) (T, error)

// Field is one metric with its own fetch, format and fallback.
type Field struct {
	Name     string
	Fallback string

	resolve func(ctx context.Context) (string, error)
}

// NewField binds a fetch and a format function into a Field.
func NewField[T any](name string, fetch Fetch[T], format func(T) string, fallback string) Field {
	return Field{
		Name:     name,
		Fallback: fallback,
		resolve: func(ctx context.Context) (string, error) {
			v, err := fetch(ctx)
			if err != nil {
				return "", err
			}
			return format(v), nil
		},
	}
}

// Result is the outcome of one resolution pass. Values holds an entry for
// every input field; Failures holds the error of each field that fell back.
type Result struct {
	Values   map[string]string
	Failures map[string]error
}

// Degraded reports whether any field used its fallback.
func (r Result) Degraded() bool {
	return len(r.Failures) > 0
}

// Resolver runs fields concurrently with a per-field timeout.
type Resolver struct {
	timeout time.Duration
	log     logrus.FieldLogger
}

// New creates a Resolver. A zero timeout disables the per-field deadline.
func New(timeout time.Duration, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		timeout: timeout,
		log:     log.WithField("component", "resolver"),
	}
}

// Resolve attempts every field once and waits for all of them to settle.
func (r *Resolver) Resolve(ctx context.Context, fields []Field) Result {
	type outcome struct {
		value string
		err   error
	}
	outcomes := make([]outcome, len(fields))

	var wg sync.WaitGroup
	for i, f := range fields {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.resolveOne(ctx, f)
			outcomes[i] = outcome{value: v, err: err}
		}()
	}
	wg.Wait()

	res := Result{
		Values:   make(map[string]string, len(fields)),
		Failures: make(map[string]error),
	}
	for i, f := range fields {
		o := outcomes[i]
		if o.err != nil {
			r.log.WithFields(logrus.Fields{
				"field":    f.Name,
				"fallback": f.Fallback,
			}).WithError(o.err).Warn("field fetch failed, using fallback")
			res.Values[f.Name] = f.Fallback
			res.Failures[f.Name] = o.err
			continue
		}
		res.Values[f.Name] = o.value
	}
	return res
}

func (r *Resolver) resolveOne(ctx context.Context, f Field) (string, error) {
	if f.resolve == nil {
		return "", fmt.Errorf("field %s has no fetch", f.Name)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type outcome struct {
		value string
		err   error
	}
	// Buffered so a fetch that outlives its deadline can still send and exit.
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("field %s panicked: %v", f.Name, p)}
			}
		}()
		v, err := f.resolve(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("field %s: %w", f.Name, ctx.Err())
	}
}
