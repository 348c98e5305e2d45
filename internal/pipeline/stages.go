package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"ecomcli/internal/cohort"
	"ecomcli/internal/dataset"
	"ecomcli/internal/datedim"
	"ecomcli/internal/exporter"
	"ecomcli/internal/features"
	"ecomcli/internal/identity"
	"ecomcli/internal/orderfact"
	"ecomcli/internal/prioritize"
	"ecomcli/internal/rfm"
)

// Stage identifiers, in dependency order.
const (
	StageLoad       = "load"
	StageIdentity   = "identity"
	StageOrderFacts = "order_facts"
	StageRFM        = "rfm"
	StageFeatures   = "time_features"
	StageCohort     = "cohort_retention"
	StagePrioritize = "prioritize"
	StageDateDim    = "date_dimension"
	StageExport     = "export"
)

// LoadStage reads the frozen raw extract from the configured source.
type LoadStage struct {
	source dataset.Source
}

// NewLoadStage creates the extract loading stage.
func NewLoadStage(source dataset.Source) *LoadStage {
	return &LoadStage{source: source}
}

func (s *LoadStage) ID() string   { return StageLoad }
func (s *LoadStage) Name() string { return "Load raw extract" }

func (s *LoadStage) Validate(state *State) error {
	if s.source == nil {
		return fmt.Errorf("no raw data source configured")
	}
	return nil
}

func (s *LoadStage) Execute(ctx context.Context, state *State) error {
	extract, err := s.source.Load(ctx)
	if err != nil {
		return err
	}
	state.Tables.Extract = extract
	return nil
}

// IdentityStage resolves canonical customers.
type IdentityStage struct {
	resolver *identity.Resolver
}

// NewIdentityStage creates the identity resolution stage.
func NewIdentityStage(logger *slog.Logger) *IdentityStage {
	return &IdentityStage{resolver: identity.NewResolver(logger)}
}

func (s *IdentityStage) ID() string   { return StageIdentity }
func (s *IdentityStage) Name() string { return "Resolve customer identities" }

func (s *IdentityStage) Validate(state *State) error {
	return requireExtract(state)
}

func (s *IdentityStage) Execute(ctx context.Context, state *State) error {
	customers, err := s.resolver.Resolve(ctx, state.Tables.Extract.Customers, state.Tables.Extract.Orders)
	if err != nil {
		return err
	}
	state.Tables.Customers = customers
	return nil
}

// OrderFactStage builds the order fact table and fixes the dataset horizon
// for the whole run.
type OrderFactStage struct {
	builder *orderfact.Builder
}

// NewOrderFactStage creates the order fact stage.
func NewOrderFactStage(logger *slog.Logger) *OrderFactStage {
	return &OrderFactStage{builder: orderfact.NewBuilder(logger)}
}

func (s *OrderFactStage) ID() string   { return StageOrderFacts }
func (s *OrderFactStage) Name() string { return "Build order facts" }

func (s *OrderFactStage) Validate(state *State) error {
	return requireExtract(state)
}

func (s *OrderFactStage) Execute(ctx context.Context, state *State) error {
	facts, err := s.builder.Build(ctx, state.Tables.Extract)
	if err != nil {
		return err
	}
	horizon, err := orderfact.Horizon(facts)
	if err != nil {
		return err
	}
	state.Tables.Facts = facts
	state.Tables.Horizon = horizon
	return nil
}

// RFMStage aggregates order facts to the customer RFM table.
type RFMStage struct {
	aggregator *rfm.Aggregator
}

// NewRFMStage creates the RFM aggregation stage.
func NewRFMStage(logger *slog.Logger) *RFMStage {
	return &RFMStage{aggregator: rfm.NewAggregator(logger)}
}

func (s *RFMStage) ID() string   { return StageRFM }
func (s *RFMStage) Name() string { return "Aggregate customer RFM" }

func (s *RFMStage) Validate(state *State) error {
	return requireFacts(state)
}

func (s *RFMStage) Execute(ctx context.Context, state *State) error {
	rows, err := s.aggregator.Aggregate(ctx, state.Tables.Facts, state.Tables.Horizon)
	if err != nil {
		return err
	}
	state.Tables.RFM = rows
	return nil
}

// FeatureStage computes time-window features against the run horizon.
type FeatureStage struct {
	engine *features.Engine
}

// NewFeatureStage creates the time-window feature stage.
func NewFeatureStage(logger *slog.Logger) *FeatureStage {
	return &FeatureStage{engine: features.NewEngine(logger)}
}

func (s *FeatureStage) ID() string   { return StageFeatures }
func (s *FeatureStage) Name() string { return "Compute time-window features" }

func (s *FeatureStage) Validate(state *State) error {
	return requireFacts(state)
}

func (s *FeatureStage) Execute(ctx context.Context, state *State) error {
	rows, err := s.engine.Compute(ctx, state.Tables.Facts, state.Tables.Horizon)
	if err != nil {
		return err
	}
	state.Tables.TimeFeatures = rows
	return nil
}

// CohortStage assigns cohorts and computes the overall and per-segment
// retention tables.
type CohortStage struct {
	engine *cohort.Engine
}

// NewCohortStage creates the cohort and retention stage.
func NewCohortStage(logger *slog.Logger) *CohortStage {
	return &CohortStage{engine: cohort.NewEngine(logger)}
}

func (s *CohortStage) ID() string   { return StageCohort }
func (s *CohortStage) Name() string { return "Compute cohort retention" }

func (s *CohortStage) Validate(state *State) error {
	return requireFacts(state)
}

func (s *CohortStage) Execute(ctx context.Context, state *State) error {
	months, err := s.engine.Assign(ctx, state.Tables.Facts)
	if err != nil {
		return err
	}
	retention, err := s.engine.Retention(ctx, months)
	if err != nil {
		return err
	}
	segmented, err := s.engine.RetentionBySegment(ctx, months)
	if err != nil {
		return err
	}
	state.Tables.CustomerMonths = months
	state.Tables.Retention = retention
	state.Tables.SegmentRetention = segmented
	return nil
}

// PrioritizeStage ranks customers by churn risk and value.
type PrioritizeStage struct {
	engine *prioritize.Engine
}

// NewPrioritizeStage creates the prioritization stage.
func NewPrioritizeStage(logger *slog.Logger) *PrioritizeStage {
	return &PrioritizeStage{engine: prioritize.NewEngine(logger)}
}

func (s *PrioritizeStage) ID() string   { return StagePrioritize }
func (s *PrioritizeStage) Name() string { return "Prioritize retention targets" }

func (s *PrioritizeStage) Validate(state *State) error {
	if len(state.Tables.RFM) == 0 {
		return fmt.Errorf("customer rfm table not materialized")
	}
	if state.Tables.Extract == nil || len(state.Tables.Extract.ChurnScores) == 0 {
		return fmt.Errorf("churn scores: %w", dataset.ErrEmptyTable)
	}
	return nil
}

func (s *PrioritizeStage) Execute(ctx context.Context, state *State) error {
	rows, err := s.engine.Rank(ctx, state.Tables.RFM, state.Tables.Extract.ChurnScores)
	if err != nil {
		return err
	}
	state.Tables.Prioritized = rows
	return nil
}

// DateDimStage generates the calendar dimension over the observed purchase
// range.
type DateDimStage struct{}

// NewDateDimStage creates the date dimension stage.
func NewDateDimStage() *DateDimStage {
	return &DateDimStage{}
}

func (s *DateDimStage) ID() string   { return StageDateDim }
func (s *DateDimStage) Name() string { return "Generate date dimension" }

func (s *DateDimStage) Validate(state *State) error {
	return requireFacts(state)
}

func (s *DateDimStage) Execute(ctx context.Context, state *State) error {
	first := state.Tables.Facts[0].PurchaseTS
	for _, f := range state.Tables.Facts[1:] {
		if f.PurchaseTS.Before(first) {
			first = f.PurchaseTS
		}
	}
	rows, err := datedim.Generate(first, state.Tables.Horizon)
	if err != nil {
		return err
	}
	state.Tables.Dates = rows
	return nil
}

// ExportStage stages every output table on disk. Publication happens in the
// runner only after the full plan succeeded.
type ExportStage struct {
	publisher *exporter.Publisher
}

// NewExportStage creates the export stage.
func NewExportStage(publisher *exporter.Publisher) *ExportStage {
	return &ExportStage{publisher: publisher}
}

func (s *ExportStage) ID() string   { return StageExport }
func (s *ExportStage) Name() string { return "Export output tables" }

func (s *ExportStage) Validate(state *State) error {
	if len(state.Tables.Customers) == 0 || len(state.Tables.Facts) == 0 ||
		len(state.Tables.RFM) == 0 || len(state.Tables.TimeFeatures) == 0 ||
		len(state.Tables.Retention) == 0 || len(state.Tables.Prioritized) == 0 {
		return fmt.Errorf("not all output tables are materialized")
	}
	return nil
}

func (s *ExportStage) Execute(ctx context.Context, state *State) error {
	return s.publisher.Stage(BuildTables(&state.Tables))
}

// BuildTables flattens the run's in-memory tables into export form.
func BuildTables(t *Tables) []exporter.Table {
	return []exporter.Table{
		exporter.CanonicalCustomerTable(t.Customers),
		exporter.OrderFactTable(t.Facts),
		exporter.CustomerRFMTable(t.RFM),
		exporter.TimeFeatureTable(t.TimeFeatures),
		exporter.CustomerCohortTable(t.CustomerMonths),
		exporter.RetentionTable(exporter.TableRetention, t.Retention, false),
		exporter.RetentionTable(exporter.TableSegmentRetention, t.SegmentRetention, true),
		exporter.PrioritizedTable(t.Prioritized),
		exporter.DateDimensionTable(t.Dates),
	}
}

func requireExtract(state *State) error {
	if state.Tables.Extract == nil {
		return fmt.Errorf("raw extract not loaded")
	}
	return nil
}

func requireFacts(state *State) error {
	if len(state.Tables.Facts) == 0 {
		return fmt.Errorf("order fact table not materialized")
	}
	if state.Tables.Horizon.IsZero() {
		return fmt.Errorf("dataset horizon not computed")
	}
	return nil
}
