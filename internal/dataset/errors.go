package dataset

import "errors"

var (
	// ErrEmptyTable reports a required raw table with no rows. A stage that
	// hits this aborts the whole run; every downstream table depends on
	// complete inputs.
	ErrEmptyTable = errors.New("required input table is empty")

	// ErrMissingTable reports a required raw table that could not be found
	// at the configured source.
	ErrMissingTable = errors.New("required input table is missing")
)
