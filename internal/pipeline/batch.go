package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vis2table/internal/domain"
)

// BatchItem is the outcome of one visualization in a batch.
type BatchItem struct {
	Ref    domain.SpecRef
	Result *Result
	Err    error
}

// RunBatch runs every ref with at most concurrency runs in flight. A failing
// visualization does not cancel the others; items come back in input order.
func (p *Pipeline) RunBatch(ctx context.Context, engine domain.Engine, refs []domain.SpecRef, concurrency int) []BatchItem {
	if concurrency <= 0 {
		concurrency = 1
	}
	batchID := uuid.NewString()
	logger := p.logger.With("batch_id", batchID)
	logger.Info("batch started", "visualizations", len(refs), "concurrency", concurrency)

	items := make([]BatchItem, len(refs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, ref := range refs {
		items[i].Ref = ref
		g.Go(func() error {
			res, err := p.RunRef(ctx, engine, ref)
			if err != nil {
				logger.Warn("visualization failed", "ref", ref.String(), "error", err)
				items[i].Err = err
				return nil // don't fail the whole batch
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	logger.Info("batch finished", "visualizations", len(refs), "failed", failed)
	return items
}
