package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the Salesforce Collections API limit per request.
const maxBatchSize = 200

// BatchError reports a failed collection call covering records [Start, End).
type BatchError struct {
	Start, End int
	Err        error
}

// BulkInsert splits records into batches of 200 and inserts them via
// InsertCollection. results[i] corresponds to records[i]; records in a
// failed batch have no result and are described by a BatchError.
func BulkInsert(ctx context.Context, c Client, sObjectName string, records []map[string]any) ([]*CollectionResult, []BatchError) {
	results := make([]*CollectionResult, len(records))
	var failed []BatchError

	for start := 0; start < len(records); start += maxBatchSize {
		end := min(start+maxBatchSize, len(records))
		res, err := c.Insert(ctx, sObjectName, records[start:end])
		if err != nil {
			failed = append(failed, BatchError{Start: start, End: end,
				Err: eris.Wrap(err, fmt.Sprintf("sf: bulk insert %s batch %d-%d", sObjectName, start, end))})
			continue
		}
		fill(results[start:end], res)
	}
	return results, failed
}

// BulkUpdate splits records into batches of 200 and updates them via
// UpdateCollection, with the same result alignment as BulkInsert.
func BulkUpdate(ctx context.Context, c Client, sObjectName string, records []CollectionRecord) ([]*CollectionResult, []BatchError) {
	results := make([]*CollectionResult, len(records))
	var failed []BatchError

	for start := 0; start < len(records); start += maxBatchSize {
		end := min(start+maxBatchSize, len(records))
		res, err := c.Update(ctx, sObjectName, records[start:end])
		if err != nil {
			failed = append(failed, BatchError{Start: start, End: end,
				Err: eris.Wrap(err, fmt.Sprintf("sf: bulk update %s batch %d-%d", sObjectName, start, end))})
			continue
		}
		fill(results[start:end], res)
	}
	return results, failed
}

func fill(dst []*CollectionResult, src []CollectionResult) {
	for i := range dst {
		if i < len(src) {
			r := src[i]
			dst[i] = &r
		}
	}
}
