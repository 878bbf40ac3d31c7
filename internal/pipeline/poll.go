package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fhir-data-pipeline/internal/fhir"
	"fhir-data-pipeline/internal/model"
)

// Poller runs the two bounded waits against the store: reachability and
// minimum ingested record count. Both poll at a fixed interval — no backoff —
// until their deadline.
type Poller struct {
	client   *fhir.Client
	interval time.Duration
	log      zerolog.Logger
}

func NewPoller(client *fhir.Client, interval time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		log:      log.With().Str("component", "readiness-poller").Logger(),
	}
}

// waitUntil polls predicate at the configured interval until it reports done,
// the deadline elapses, or ctx is cancelled. Reports whether the predicate
// ever held.
func (p *Poller) waitUntil(ctx context.Context, deadline time.Duration, predicate func(context.Context) bool) bool {
	limit := time.Now().Add(deadline)
	for {
		if predicate(ctx) {
			return true
		}
		if time.Now().Add(p.interval).After(limit) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.interval):
		}
	}
}

// WaitForStore blocks until the store answers its metadata probe with any
// status below 500. Elapsing the deadline is fatal — nothing downstream can
// use an unreachable store — and the returned TimeoutError names the last
// observed status and transport error.
func (p *Poller) WaitForStore(ctx context.Context, deadline time.Duration) error {
	var lastStatus int
	var lastErr error

	ok := p.waitUntil(ctx, deadline, func(ctx context.Context) bool {
		status, err := p.client.Metadata(ctx)
		if err != nil {
			lastStatus, lastErr = 0, err
			p.log.Debug().Err(err).Msg("store not reachable yet")
			return false
		}
		lastStatus, lastErr = status, nil
		return status < 500
	})
	if !ok {
		return &model.TimeoutError{Op: "wait for store", LastStatus: lastStatus, LastErr: lastErr, Elapsed: deadline}
	}

	p.log.Info().Int("status", lastStatus).Msg("store reachable")
	return nil
}

// WaitForResourceCount blocks until the store reports at least min resources
// of the given type, returning the observed total. Elapsing the deadline
// returns 0 rather than an error: verification is advisory and callers treat
// 0 as inconclusive, not fatal.
func (p *Poller) WaitForResourceCount(ctx context.Context, resourceType string, min int, deadline time.Duration) int {
	var count int

	ok := p.waitUntil(ctx, deadline, func(ctx context.Context) bool {
		n, err := p.client.ResourceCount(ctx, resourceType)
		if err != nil {
			p.log.Debug().Err(err).Str("type", resourceType).Msg("count query failed, still waiting")
			return false
		}
		count = n
		return n >= min
	})
	if !ok {
		p.log.Warn().
			Str("type", resourceType).
			Int("min", min).
			Int("last", count).
			Msg("record count verification inconclusive")
		return 0
	}
	return count
}

// ReloadOptions configures one reload-from-source run.
type ReloadOptions struct {
	SourceDir        string
	Limit            int
	Force            bool
	VerifyType       string
	MinVerifyCount   int
	ReachableTimeout time.Duration
	VerifyTimeout    time.Duration
}

// Runner composes the loader and poller into the reload orchestration.
type Runner struct {
	client *fhir.Client
	loader *Loader
	poller *Poller
	log    zerolog.Logger
}

func NewRunner(client *fhir.Client, loader *Loader, poller *Poller, log zerolog.Logger) *Runner {
	return &Runner{
		client: client,
		loader: loader,
		poller: poller,
		log:    log.With().Str("component", "reload-runner").Logger(),
	}
}

// Loader exposes the underlying bulk loader so callers can hook per-file
// error observation before triggering a run.
func (r *Runner) Loader() *Loader { return r.loader }

// ReloadFromSource waits for the store to come up, short-circuits when it
// already holds records of the verify type (unless forced), bulk-loads the
// source directory, then waits for the ingested count to cross the verify
// threshold. Only the reachability wait can fail the call.
func (r *Runner) ReloadFromSource(ctx context.Context, opts ReloadOptions) (model.LoadSummary, error) {
	if err := r.poller.WaitForStore(ctx, opts.ReachableTimeout); err != nil {
		return model.LoadSummary{}, err
	}

	if !opts.Force {
		if n, err := r.client.ResourceCount(ctx, opts.VerifyType); err == nil && n >= 1 {
			r.log.Info().Str("type", opts.VerifyType).Int("count", n).Msg("store already populated, skipping load")
			return model.LoadSummary{VerifiedCount: n}, nil
		}
	}

	stats := r.loader.LoadDirectory(ctx, opts.SourceDir, opts.Limit)
	verified := r.poller.WaitForResourceCount(ctx, opts.VerifyType, opts.MinVerifyCount, opts.VerifyTimeout)
	return model.LoadSummary{Stats: stats, VerifiedCount: verified}, nil
}
