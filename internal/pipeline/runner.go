package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "ecomcli/internal/errors"
	"ecomcli/internal/exporter"
	"ecomcli/internal/infrastructure"
)

// Runner executes the stage plan for one run. The plan is a sequence of
// groups; stages within a group have no data dependency on each other and
// run concurrently, groups run strictly in order.
type Runner struct {
	plan      [][]Stage
	publisher *exporter.Publisher
	logger    *slog.Logger
}

// NewRunner builds the standard pipeline plan over the given load stage and
// publisher. RFM and time-window features both read only the fact table and
// the shared horizon, so they form one concurrent group; the cohort and date
// dimension stages are likewise independent of each other.
func NewRunner(load *LoadStage, publisher *exporter.Publisher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		plan: [][]Stage{
			{load},
			{NewIdentityStage(logger), NewOrderFactStage(logger)},
			{NewRFMStage(logger), NewFeatureStage(logger)},
			{NewCohortStage(logger), NewDateDimStage()},
			{NewPrioritizeStage(logger)},
			{NewExportStage(publisher)},
		},
		publisher: publisher,
		logger:    logger,
	}
}

// Run executes the full plan against a fresh state and publishes the staged
// tables once every stage has completed. On any failure the run aborts and
// nothing is published; a retried run fully replaces all outputs, so partial
// prior state never leaks forward.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	state := NewState()
	start := time.Now()
	ctx = infrastructure.WithRunID(ctx, state.RunID)

	r.logger.InfoContext(ctx, "starting pipeline run", "run_id", state.RunID)

	for _, group := range r.plan {
		for _, stage := range group {
			state.RegisterStage(stage.ID(), stage.Name())
		}
	}

	for _, group := range r.plan {
		if err := r.runGroup(ctx, group, state); err != nil {
			recordRun("failed", time.Since(start))
			r.logger.ErrorContext(ctx, "pipeline run failed",
				"run_id", state.RunID,
				"error", err,
				"duration", time.Since(start),
			)
			return state, err
		}
	}

	if err := r.publisher.Publish(); err != nil {
		recordRun("failed", time.Since(start))
		return state, fmt.Errorf("publish run %s: %w", state.RunID, err)
	}

	recordRun("completed", time.Since(start))
	r.logger.InfoContext(ctx, "pipeline run completed",
		"run_id", state.RunID,
		"duration", time.Since(start),
		"published_dir", r.publisher.PublishedDir(),
	)

	return state, nil
}

func (r *Runner) runGroup(ctx context.Context, group []Stage, state *State) error {
	g, groupCtx := errgroup.WithContext(ctx)
	for _, stage := range group {
		stage := stage
		g.Go(func() error {
			return r.runStage(groupCtx, stage, state)
		})
	}
	return g.Wait()
}

func (r *Runner) runStage(ctx context.Context, stage Stage, state *State) error {
	stageState := state.StageState(stage.ID())
	stageState.Start()

	r.logger.InfoContext(ctx, "stage started",
		"run_id", state.RunID,
		"stage", stage.ID(),
	)

	if err := stage.Validate(state); err != nil {
		wrapped := apperrors.NewStageError(stage.ID(), "", fmt.Errorf("validate: %w", err))
		stageState.Fail(wrapped)
		return wrapped
	}

	if err := stage.Execute(ctx, state); err != nil {
		wrapped := apperrors.NewStageError(stage.ID(), "", err)
		stageState.Fail(wrapped)
		return wrapped
	}

	stageState.Complete()
	observeStage(stage.ID(), stageState.Duration())

	r.logger.InfoContext(ctx, "stage completed",
		"run_id", state.RunID,
		"stage", stage.ID(),
		"duration", stageState.Duration(),
	)

	return nil
}
