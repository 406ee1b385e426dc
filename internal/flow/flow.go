// Package flow sequences a full build: load definitions, construct the
// workflow registry, then resolve every workflow into an execution rank table.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourceplane/nthflow/internal/builder"
	"github.com/sourceplane/nthflow/internal/model"
	"github.com/sourceplane/nthflow/internal/planner"
)

// Source supplies raw workflow definitions
type Source interface {
	Load(ctx context.Context) ([]model.Definition, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) ([]model.Definition, error)

func (f SourceFunc) Load(ctx context.Context) ([]model.Definition, error) {
	return f(ctx)
}

// Result is everything one build produced
type Result struct {
	Registry *model.Registry
	Ranks    planner.RankTable
	Stages   planner.RankTable
	Failures planner.BuildErrors // only with isolation
}

// Orchestrator runs builds against a definition source
type Orchestrator struct {
	source  Source
	logger  *slog.Logger
	builder *builder.Builder
	isolate bool
	workers int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithBuilder replaces the default builder, e.g. to change identity allocation
func WithBuilder(b *builder.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = b
	}
}

// WithIsolation keeps a failing workflow from aborting the whole build
func WithIsolation(isolate bool) Option {
	return func(o *Orchestrator) {
		o.isolate = isolate
	}
}

// WithWorkers bounds concurrent workflow resolution
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

// New creates an orchestrator. A nil logger discards output.
func New(source Source, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := &Orchestrator{
		source:  source,
		logger:  logger,
		builder: builder.New(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build performs a full rebuild. Each call returns a fresh registry and
// table; nothing carries over from previous builds.
func (o *Orchestrator) Build(ctx context.Context) (*Result, error) {
	o.logger.Info("setting flows")
	defs, err := o.source.Load(ctx)
	if err != nil {
		o.logger.Error("failed to load definitions", "error", err)
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	registry, err := o.builder.BuildAll(defs)
	if err != nil {
		o.logger.Error("failed to build workflows", "error", err)
		return nil, fmt.Errorf("failed to build workflows: %w", err)
	}
	o.logger.Info("built workflows", "workflows", registry.Len(), "units", registry.UnitCount())
	for _, wf := range registry.Workflows() {
		o.logger.Debug("workflow", "id", wf.ID, "name", wf.Name, "source", wf.Source, "units", len(wf.Units))
	}

	schedule, err := planner.Compile(ctx, registry,
		planner.WithIsolation(o.isolate),
		planner.WithWorkers(o.workers),
	)

	var failures planner.BuildErrors
	if err != nil {
		if schedule == nil || !errors.As(err, &failures) {
			o.logger.Error("failed to resolve workflows", "error", err)
			return nil, fmt.Errorf("failed to resolve workflows: %w", err)
		}
		for _, f := range failures {
			o.logger.Warn("workflow excluded from rank table", "id", f.WorkflowID, "name", f.Workflow, "error", f.Err)
		}
	}

	for _, wf := range registry.Workflows() {
		if ranks, ok := schedule.Ranks[wf.ID]; ok {
			o.logger.Debug("sorted units", "workflow", wf.Name, "order", orderOf(ranks))
		}
	}
	o.logger.Info("built rank table", "resolved", len(schedule.Ranks), "failed", len(failures))

	return &Result{
		Registry: registry,
		Ranks:    schedule.Ranks,
		Stages:   schedule.Stages,
		Failures: failures,
	}, nil
}

// orderOf lists unit names by rank
func orderOf(ranks map[string]int) []string {
	order := make([]string, len(ranks))
	for name, rank := range ranks {
		order[rank] = name
	}
	return order
}
