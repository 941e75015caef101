package fetcher

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// ReadVideosCSV parses a CSV export whose first row is the header.
// Columns other than the known video columns are ignored.
func ReadVideosCSV(ctx context.Context, r io.Reader) (*model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return decodeRecords(ctx, cr)
}
