// Package pipeline orchestrates one scheduling run end to end: engine
// selection, optimization, jury refinement, conflict detection/resolution,
// and final Standard Fitness scoring. It is the Go-native equivalent of the
// teacher's ScheduleGeneratorService, generalized from timetable generation
// to exam board scheduling.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ciriera/examboard-scheduler/internal/conflict"
	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/engine"
	"github.com/Ciriera/examboard-scheduler/internal/engine/consecutive"
	"github.com/Ciriera/examboard-scheduler/internal/engine/cp"
	"github.com/Ciriera/examboard-scheduler/internal/engine/localsearch"
	"github.com/Ciriera/examboard-scheduler/internal/engine/matrix"
	"github.com/Ciriera/examboard-scheduler/internal/engine/population"
	"github.com/Ciriera/examboard-scheduler/internal/engine/priority"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	"github.com/Ciriera/examboard-scheduler/internal/refinement"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// EngineName identifies one of the six engine families spec.md §4.5 names,
// with the local-search and population families split into their named
// variants (three and two respectively).
type EngineName string

const (
	EnginePriority          EngineName = "priority"
	EngineConsecutive       EngineName = "consecutive"
	EngineCP                EngineName = "cp"
	EngineMatrix            EngineName = "matrix"
	EngineLocalSearchHill   EngineName = "local_search_hill_climb"
	EngineLocalSearchTabu   EngineName = "local_search_tabu"
	EngineLocalSearchAnneal EngineName = "local_search_annealing"
	EnginePopulationGenetic EngineName = "population_genetic"
	EnginePopulationNSGA    EngineName = "population_nsga"
)

// Config governs one run. MaxTime of 0 means no soft time budget (the
// caller's context is used as-is).
type Config struct {
	Engine  EngineName
	Seed    int64
	MaxTime time.Duration
	Weights fitness.Weights
	Refine  refinement.Weights
}

// DefaultConfig mirrors config.EngineConfig/FitnessConfig's defaults.
func DefaultConfig() Config {
	return Config{
		Engine:  EnginePriority,
		Seed:    0,
		MaxTime: 30 * time.Second,
		Weights: fitness.DefaultWeights(),
		Refine:  refinement.DefaultWeights(),
	}
}

// Run is the full result of one pipeline execution: the final assignment
// set, its fitness, what the engine reported, what refinement could not
// complete, and what conflict resolution had to fix.
type Run struct {
	Assignments        []domain.Assignment
	Fitness            fitness.Report
	EngineDiagnostics  engine.Diagnostics
	Residuals          []refinement.Residual
	ConflictLog        []conflict.LogEntry
	RemainingConflicts []conflict.Conflict
}

// Pipeline wires an engine selection to the refine/detect/resolve/score
// stages every run goes through regardless of which engine produced the
// initial schedule.
type Pipeline struct {
	logger *zap.Logger
}

// New builds a Pipeline. A nil logger is replaced with a no-op logger,
// matching the teacher's NewScheduleGeneratorService nil-guard convention.
func New(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger}
}

func buildEngine(cfg Config) (engine.Engine, error) {
	switch cfg.Engine {
	case EnginePriority, "":
		return priority.New(cfg.Weights), nil
	case EngineConsecutive:
		return consecutive.New(cfg.Weights), nil
	case EngineCP:
		return cp.New(cfg.Weights), nil
	case EngineMatrix:
		return matrix.New(cfg.Weights), nil
	case EngineLocalSearchHill:
		return localsearch.NewHillClimb(cfg.Weights, cfg.Seed), nil
	case EngineLocalSearchTabu:
		return localsearch.NewTabu(cfg.Weights, cfg.Seed), nil
	case EngineLocalSearchAnneal:
		return localsearch.NewAnnealing(cfg.Weights, cfg.Seed), nil
	case EnginePopulationGenetic:
		return population.NewGenetic(cfg.Weights, cfg.Seed), nil
	case EnginePopulationNSGA:
		return population.NewNSGA(cfg.Weights, cfg.Seed), nil
	default:
		return nil, fmt.Errorf("pipeline: unknown engine %q", cfg.Engine)
	}
}

// Execute validates the inputs, runs the selected engine, fills jury gaps,
// detects and resolves remaining conflicts, and scores the result. It
// returns a Run even on a timed-out engine; an error comes only from
// ingestion-time validation, an unknown engine name, engine initialization,
// or the engine's Optimize (such as the CP engine's
// domain.ErrInfeasibleSchedule).
func (p *Pipeline) Execute(ctx context.Context, in domain.Inputs, cfg Config) (Run, error) {
	if err := in.Validate(); err != nil {
		return Run{}, err
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return Run{}, err
	}
	if err := eng.Initialize(in); err != nil {
		return Run{}, fmt.Errorf("pipeline: initialize %s: %w", cfg.Engine, err)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.MaxTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.MaxTime)
		defer cancel()
	}

	start := time.Now()
	result, err := eng.Optimize(runCtx, in)
	if err != nil {
		return Run{}, fmt.Errorf("pipeline: optimize %s: %w", cfg.Engine, err)
	}
	p.logger.Info("engine_optimize",
		zap.String("engine", string(cfg.Engine)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Bool("timed_out", result.Diagnostics.TimedOut),
	)

	refined, residuals := refinement.Refine(result.Assignments, in, cfg.Refine)

	idx := slotindex.Build(in.Timeslots, in.Classrooms)
	conflicts := conflict.Detect(refined, in)
	resolved, log, remaining := conflict.Resolve(refined, conflicts, in, idx)
	if len(remaining) > 0 {
		p.logger.Warn("unresolved_conflicts", zap.Int("count", len(remaining)))
	}

	report := fitness.Score(resolved, in, fitness.WithDefaults(cfg.Weights))

	return Run{
		Assignments:        resolved,
		Fitness:            report,
		EngineDiagnostics:  result.Diagnostics,
		Residuals:          residuals,
		ConflictLog:        log,
		RemainingConflicts: remaining,
	}, nil
}
