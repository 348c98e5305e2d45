package dataset

import (
	"context"
	"fmt"
)

// Source loads one complete raw extract. Implementations must return the
// whole snapshot in a single call; stages never stream partial inputs.
type Source interface {
	// Load reads every raw table and returns them as one extract.
	Load(ctx context.Context) (*Extract, error)
}

// Validate checks that the tables every downstream stage depends on are
// present and non-empty. Churn scores and segment assignments are external
// collaborator outputs and are checked by the stages that consume them.
func (e *Extract) Validate() error {
	if len(e.Customers) == 0 {
		return fmt.Errorf("raw customers: %w", ErrEmptyTable)
	}
	if len(e.Orders) == 0 {
		return fmt.Errorf("raw orders: %w", ErrEmptyTable)
	}
	if len(e.Items) == 0 {
		return fmt.Errorf("raw order items: %w", ErrEmptyTable)
	}
	return nil
}
