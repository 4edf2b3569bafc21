// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// recordResolver is the per-record strategy seam; *Resolver satisfies it.
type recordResolver interface {
	Resolve(ctx context.Context, rec types.PaperRecord) types.AcquisitionOutcome
}

// RunBatch fans out one acquisition unit per record over the first limit
// records, in parser order. Units run concurrently, each writing its
// outcome to its own slot, so sibling failures cannot disturb one another
// and the summary preserves input ordering regardless of completion order.
// The batch settles only when every unit has.
func RunBatch(ctx context.Context, records []types.PaperRecord, limit int, res recordResolver, concurrency int, w io.Writer) types.CrawlSummary {
	start := time.Now()

	selected := records
	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}

	fmt.Fprintf(w, "acquiring %d of %d record(s)\n", len(selected), len(records))

	outcomes := make([]types.AcquisitionOutcome, len(selected))

	g := new(errgroup.Group)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, rec := range selected {
		g.Go(func() error {
			outcomes[i] = res.Resolve(ctx, rec)
			// Per-item failures are already captured in the outcome;
			// returning nil keeps siblings running.
			return nil
		})
	}
	g.Wait()

	summary := types.CrawlSummary{
		TotalFound: len(records),
		Outcomes:   outcomes,
		Elapsed:    time.Since(start),
	}
	for _, out := range outcomes {
		if out.Downloaded {
			summary.TotalDownloaded++
		} else {
			summary.TotalFailed++
		}
	}
	return summary
}
