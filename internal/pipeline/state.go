package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ecomcli/internal/cohort"
	"ecomcli/internal/dataset"
	"ecomcli/internal/datedim"
	"ecomcli/internal/features"
	"ecomcli/internal/identity"
	"ecomcli/internal/orderfact"
	"ecomcli/internal/prioritize"
	"ecomcli/internal/rfm"
)

// Tables holds the materialized tables of one run. A stage only reads fields
// its upstream stages have fully written; the runner enforces that ordering.
type Tables struct {
	Extract *dataset.Extract

	Customers []identity.CanonicalCustomer
	Facts     []orderfact.Fact

	// Horizon is the single dataset horizon shared by every recency and
	// window computation in the run. It is computed exactly once, when the
	// fact table is materialized.
	Horizon time.Time

	RFM          []rfm.CustomerRFM
	TimeFeatures []features.CustomerTimeFeatures

	CustomerMonths   []cohort.CustomerMonth
	Retention        []cohort.RetentionRow
	SegmentRetention []cohort.RetentionRow

	Prioritized []prioritize.PrioritizedCustomer
	Dates       []datedim.Row
}

// State is the shared run state: identity, timing and the table store.
type State struct {
	RunID     string
	StartedAt time.Time

	mu     sync.RWMutex
	stages map[string]*StageState
	order  []string

	Tables Tables
}

// NewState creates the state for a fresh run with a unique run ID.
func NewState() *State {
	return &State{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		stages:    make(map[string]*StageState),
	}
}

// RegisterStage records a stage as part of this run.
func (s *State) RegisterStage(id, name string) *StageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := NewStageState(id, name)
	s.stages[id] = state
	s.order = append(s.order, id)
	return state
}

// StageState returns the runtime record of a stage, nil when unknown.
func (s *State) StageState(id string) *StageState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stages[id]
}

// StageStates returns the stage records in registration order.
func (s *State) StageStates() []*StageState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*StageState, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.stages[id])
	}
	return result
}
