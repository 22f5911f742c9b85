package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/datanorm"
	"github.com/ignite/marketpulse/internal/pkg/logger"
)

// DefaultFetchTimeout bounds a single source fetch.
const DefaultFetchTimeout = 20 * time.Second

// Status is the outcome of fetching one source.
type Status struct {
	Source     string `json:"source"`
	OK         bool   `json:"ok"`
	Rows       int    `json:"rows"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Collection is the merged result of a collect run.
type Collection struct {
	Dataset  *datanorm.Dataset   `json:"dataset"`
	Statuses []Status            `json:"statuses"`
	Warnings []analytics.Warning `json:"warnings"`
}

// Available reports whether at least one source succeeded.
func (c Collection) Available() bool {
	for _, s := range c.Statuses {
		if s.OK {
			return true
		}
	}
	return false
}

// Collector fetches sources concurrently. A failing source is reported as a
// warning and never aborts the run.
type Collector struct {
	timeout time.Duration
	log     *logger.Logger
}

// NewCollector returns a Collector with the given per-source timeout.
func NewCollector(timeout time.Duration, log *logger.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	return &Collector{timeout: timeout, log: log.With("component", "collector")}
}

type fetchResult struct {
	ds       *datanorm.Dataset
	err      error
	duration time.Duration
}

// Collect fetches every source and merges the successful datasets in the
// order the sources were given.
func (c *Collector) Collect(ctx context.Context, srcs ...Source) Collection {
	results := make([]fetchResult, len(srcs))

	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = c.fetch(ctx, src)
		}(i, src)
	}
	wg.Wait()

	out := Collection{
		Statuses: make([]Status, len(srcs)),
		Warnings: []analytics.Warning{},
	}
	var datasets []*datanorm.Dataset
	for i, src := range srcs {
		r := results[i]
		st := Status{Source: src.Name(), DurationMS: r.duration.Milliseconds()}
		if r.err != nil {
			st.Error = r.err.Error()
			out.Warnings = append(out.Warnings, analytics.Warning{
				Kind:    analytics.WarnSourceUnavailable,
				Message: fmt.Sprintf("source %s unavailable: %v", src.Name(), r.err),
			})
			c.log.Warn("source fetch failed", "source", src.Name(), "error", r.err.Error(), "duration_ms", st.DurationMS)
		} else {
			st.OK = true
			st.Rows = r.ds.Len()
			datasets = append(datasets, r.ds)
			c.log.Debug("source fetched", "source", src.Name(), "rows", st.Rows, "duration_ms", st.DurationMS)
		}
		out.Statuses[i] = st
	}

	out.Dataset = datanorm.Merge(datasets...)
	return out
}

func (c *Collector) fetch(ctx context.Context, src Source) (res fetchResult) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = fetchResult{err: fmt.Errorf("panic: %v", p)}
		}
		res.duration = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ds, err := src.Fetch(ctx)
	if err == nil && ds == nil {
		err = fmt.Errorf("source returned no data")
	}
	return fetchResult{ds: ds, err: err}
}
