package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// ReadVideosJSON parses a JSON array of video objects, as written by
// pandas' to_json(orient="records"). The union of object keys, sorted,
// forms the column set.
func ReadVideosJSON(ctx context.Context, r io.Reader) (*model.Dataset, error) {
	var records []map[string]any
	itemCh, errCh := decodeJSONArray[map[string]any](ctx, r)
	for item := range itemCh {
		records = append(records, item)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var header []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	slices.Sort(header)

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, rec := range records {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = jsonCell(rec[k])
		}
		rows = append(rows, row)
	}
	if len(records) == 0 {
		return model.NewDataset(nil, nil), nil
	}
	return decodeRecords(ctx, &sliceReader{rows: rows})
}

func jsonCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// decodeJSONArray decodes a JSON array streaming, sending each element to a channel.
// Both channels are closed when processing completes.
func decodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}
	}()

	return outCh, errCh
}
