package kpi

import (
	"errors"
	"fmt"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// ErrMissingColumn is matched by every MissingColumnError via errors.Is.
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError reports a required input column that is absent.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("kpi: missing column %q", e.Column)
}

// Is lets errors.Is(err, ErrMissingColumn) match any missing column.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// requireColumns returns a MissingColumnError for the first absent column.
func requireColumns(ds *model.Dataset, cols ...string) error {
	for _, c := range cols {
		if !ds.Has(c) {
			return &MissingColumnError{Column: c}
		}
	}
	return nil
}
