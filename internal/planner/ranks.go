package planner

import (
	"context"
	"runtime"

	"github.com/sourceplane/nthflow/internal/model"
	"golang.org/x/sync/errgroup"
)

// RankTable maps workflow id -> unit name -> zero-based execution rank
type RankTable map[string]map[string]int

// Schedule is the resolved form of a registry
type Schedule struct {
	Ranks  RankTable
	Stages RankTable                 // zero-based elimination round per unit
	Failed map[string]*WorkflowError // only populated with isolation
}

type options struct {
	isolate bool
	workers int
}

// Option configures rank table construction
type Option func(*options)

// WithIsolation keeps resolving the remaining workflows when one fails.
// Failed workflows get no entry in the table.
func WithIsolation(isolate bool) Option {
	return func(o *options) {
		o.isolate = isolate
	}
}

// WithWorkers bounds how many workflows are resolved concurrently
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// BuildRanks resolves every workflow in the registry and returns the rank table
func BuildRanks(ctx context.Context, registry *model.Registry, opts ...Option) (RankTable, error) {
	schedule, err := Compile(ctx, registry, opts...)
	if schedule == nil {
		return nil, err
	}
	return schedule.Ranks, err
}

// Compile resolves every workflow in the registry.
// Without isolation the first failing workflow, in registry order, aborts the
// whole call. With isolation the schedule is returned together with a
// BuildErrors value describing the workflows that were left out.
func Compile(ctx context.Context, registry *model.Registry, opts ...Option) (*Schedule, error) {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	workflows := registry.Workflows()

	type result struct {
		rounds [][]string
		err    error
	}
	results := make([]result, len(workflows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, wf := range workflows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// each worker owns exactly one slot
			rounds, err := ResolveRounds(wf.Units)
			results[i] = result{rounds: rounds, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	schedule := &Schedule{
		Ranks:  make(RankTable, len(workflows)),
		Stages: make(RankTable, len(workflows)),
		Failed: make(map[string]*WorkflowError),
	}
	var failures BuildErrors

	for i, wf := range workflows {
		res := results[i]
		if res.err != nil {
			wfErr := &WorkflowError{WorkflowID: wf.ID, Workflow: wf.Name, Err: res.err}
			if !o.isolate {
				return nil, wfErr
			}
			schedule.Failed[wf.ID] = wfErr
			failures = append(failures, wfErr)
			continue
		}

		ranks := make(map[string]int, len(wf.Units))
		stages := make(map[string]int, len(wf.Units))
		rank := 0
		for stage, round := range res.rounds {
			for _, name := range round {
				ranks[name] = rank
				stages[name] = stage
				rank++
			}
		}
		schedule.Ranks[wf.ID] = ranks
		schedule.Stages[wf.ID] = stages
	}

	if len(failures) > 0 {
		return schedule, failures
	}
	return schedule, nil
}
