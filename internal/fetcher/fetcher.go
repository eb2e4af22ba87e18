// Package fetcher runs the batch retrieval pipeline: a bounded worker
// pool resolves every identifier against the configured source and the
// results come back in input order.
package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/cvelens/cvelens/internal/loader"
	"github.com/cvelens/cvelens/internal/logging"
	"github.com/cvelens/cvelens/internal/metrics"
	"github.com/cvelens/cvelens/internal/normalize"
	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
)

var logger = logging.InitLogger()

// AllUnresolvedError reports a batch where not a single identifier
// produced a record.
type AllUnresolvedError struct {
	Total int
}

func (e *AllUnresolvedError) Error() string {
	return fmt.Sprintf("none of the %d identifiers could be resolved, the vulnerability databases are most likely down or unreachable", e.Total)
}

// Fetcher drives concurrent lookups against a source client.
type Fetcher struct {
	client  source.Client
	workers int
}

// New builds a fetcher running at most workers concurrent lookups.
func New(client source.Client, workers int) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{client: client, workers: workers}
}

// FetchAll resolves every identifier and assembles the results in input
// order. Identifiers that produced no record end up in the skipped list;
// the error is non-nil only when ctx was cancelled or the whole batch
// came back empty.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) (*model.ResultSet, error) {
	// Each worker writes only the indices it drained from the channel,
	// so the slice needs no lock.
	outcomes := make([]model.Outcome, len(ids))

	workers := f.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = f.resolve(ctx, ids[idx])
			}
		}()
	}

feed:
	for idx := range ids {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set, err := assemble(ids, outcomes)
	if err != nil {
		return nil, err
	}
	for _, skip := range set.Skipped {
		if skip.Reason == model.SkipNotFound {
			logger.Sugar().Warnf("Identifier %s not found in the database, skipping", skip.ID)
		} else {
			logger.Sugar().Warnf("Identifier %s skipped: %s", skip.ID, skip.Detail)
		}
	}
	logger.Sugar().Infof("Resolved %d of %d identifiers, %d skipped", len(set.Records), len(ids), len(set.Skipped))
	return set, nil
}

func (f *Fetcher) resolve(ctx context.Context, id string) model.Outcome {
	if !loader.ValidIdentifier(id) {
		metrics.Default.FetchOutcomes.WithLabelValues("invalid").Inc()
		return model.Outcome{ID: id, Status: model.OutcomeError, Err: fmt.Errorf("%q is not a vulnerability identifier", id)}
	}

	payload, err := f.client.Fetch(ctx, id)
	if err != nil {
		if source.IsNotFound(err) {
			metrics.Default.FetchOutcomes.WithLabelValues("not_found").Inc()
			return model.Outcome{ID: id, Status: model.OutcomeNotFound, Err: err}
		}
		metrics.Default.FetchOutcomes.WithLabelValues("error").Inc()
		return model.Outcome{ID: id, Status: model.OutcomeError, Err: err}
	}

	rec, err := normalize.Record(id, payload)
	if err != nil {
		logger.Sugar().Warnf("Normalizing %s failed: %v", id, err)
		metrics.Default.FetchOutcomes.WithLabelValues("error").Inc()
		return model.Outcome{ID: id, Status: model.OutcomeError, Err: err}
	}

	metrics.Default.FetchOutcomes.WithLabelValues("found").Inc()
	return model.Outcome{ID: id, Status: model.OutcomeFound, Record: rec}
}

func assemble(ids []string, outcomes []model.Outcome) (*model.ResultSet, error) {
	set := &model.ResultSet{Records: []model.Record{}, Skipped: []model.SkippedIdentifier{}}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case model.OutcomeFound:
			set.Records = append(set.Records, *outcome.Record)
		case model.OutcomeNotFound:
			set.Skipped = append(set.Skipped, model.SkippedIdentifier{
				ID:     outcome.ID,
				Reason: model.SkipNotFound,
				Detail: errDetail(outcome.Err),
			})
		case model.OutcomeError:
			set.Skipped = append(set.Skipped, model.SkippedIdentifier{
				ID:     outcome.ID,
				Reason: model.SkipError,
				Detail: errDetail(outcome.Err),
			})
		}
	}

	if len(ids) > 0 && len(set.Records) == 0 {
		return nil, &AllUnresolvedError{Total: len(ids)}
	}
	return set, nil
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
