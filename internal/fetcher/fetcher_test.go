package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   map[string]int
	active  int
	peak    int
	delay   map[string]time.Duration
	handler func(id string) (*source.Payload, error)
}

func newFakeClient(handler func(id string) (*source.Payload, error)) *fakeClient {
	return &fakeClient{
		calls:   map[string]int{},
		delay:   map[string]time.Duration{},
		handler: handler,
	}
}

func (f *fakeClient) Name() source.Kind {
	return source.KindCVE
}

func (f *fakeClient) Fetch(ctx context.Context, id string) (*source.Payload, error) {
	f.mu.Lock()
	f.calls[id]++
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	wait := f.delay[id]
	f.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &source.SourceError{Source: source.KindCVE, ID: id, Kind: source.FailureFatal, Err: err}
	}
	return f.handler(id)
}

func foundPayload(id string) *source.Payload {
	return &source.Payload{
		Source: source.KindCVE,
		CVE: &source.CVERecord{
			Metadata: source.CVEMetadata{ID: id, State: "PUBLISHED"},
			Containers: source.CVEContainers{
				CNA: source.CVEContainer{
					Descriptions: []source.CVEText{{Lang: "en", Value: "A vulnerability affecting " + id + "."}},
				},
			},
		},
	}
}

func notFound(id string) error {
	return &source.SourceError{Source: source.KindCVE, ID: id, Kind: source.FailureNotFound, Status: 404}
}

func unavailable(id string) error {
	return &source.SourceError{Source: source.KindCVE, ID: id, Kind: source.FailureTransient, Status: 503}
}

func TestFetchAllPreservesInputOrder(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		return foundPayload(id), nil
	})
	// The first identifier finishes last, the order must still hold.
	client.delay["CVE-2023-0001"] = 60 * time.Millisecond
	client.delay["CVE-2023-0002"] = 30 * time.Millisecond

	ids := []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003"}
	set, err := New(client, 3).FetchAll(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, set.Records, 3)
	for i, id := range ids {
		assert.Equal(t, id, set.Records[i].Metadata.ID)
	}
	assert.Empty(t, set.Skipped)
}

func TestFetchAllPartialOutcomes(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		switch id {
		case "CVE-2023-0002":
			return nil, notFound(id)
		case "CVE-2023-0003":
			return nil, unavailable(id)
		}
		return foundPayload(id), nil
	})

	ids := []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003"}
	set, err := New(client, 2).FetchAll(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, set.Records, 1)
	assert.Equal(t, "CVE-2023-0001", set.Records[0].Metadata.ID)

	require.Len(t, set.Skipped, 2)
	assert.Equal(t, "CVE-2023-0002", set.Skipped[0].ID)
	assert.Equal(t, model.SkipNotFound, set.Skipped[0].Reason)
	assert.Equal(t, "CVE-2023-0003", set.Skipped[1].ID)
	assert.Equal(t, model.SkipError, set.Skipped[1].Reason)
	assert.NotEmpty(t, set.Skipped[1].Detail)
}

func TestFetchAllAllUnresolved(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		return nil, unavailable(id)
	})

	ids := []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003"}
	set, err := New(client, 2).FetchAll(context.Background(), ids)

	assert.Nil(t, set)
	var unresolved *AllUnresolvedError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, 3, unresolved.Total)
	assert.Contains(t, err.Error(), "vulnerability databases are most likely down")
}

func TestFetchAllEmptyInput(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		t.Fatal("no lookup expected")
		return nil, nil
	})

	set, err := New(client, 4).FetchAll(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, set.Records)
	assert.Empty(t, set.Skipped)
}

func TestFetchAllInvalidIdentifierSkipsLookup(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		return foundPayload(id), nil
	})

	set, err := New(client, 2).FetchAll(context.Background(), []string{"CVE-2023-0001", "not an id"})
	require.NoError(t, err)

	require.Len(t, set.Records, 1)
	require.Len(t, set.Skipped, 1)
	assert.Equal(t, "not an id", set.Skipped[0].ID)
	assert.Equal(t, model.SkipError, set.Skipped[0].Reason)
	assert.Equal(t, 0, client.calls["not an id"])
}

func TestFetchAllCancellation(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		return foundPayload(id), nil
	})
	for _, id := range []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003", "CVE-2023-0004"} {
		client.delay[id] = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	set, err := New(client, 2).FetchAll(ctx, []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003", "CVE-2023-0004"})

	assert.Nil(t, set)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchAllIdempotent(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		if id == "CVE-2023-0002" {
			return nil, notFound(id)
		}
		return foundPayload(id), nil
	})

	ids := []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003"}
	fetcher := New(client, 2)

	first, err := fetcher.FetchAll(context.Background(), ids)
	require.NoError(t, err)
	second, err := fetcher.FetchAll(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		return foundPayload(id), nil
	})
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = "CVE-2023-000" + string(rune('1'+i))
		client.delay[ids[i]] = 20 * time.Millisecond
	}

	_, err := New(client, 2).FetchAll(context.Background(), ids)
	require.NoError(t, err)

	assert.LessOrEqual(t, client.peak, 2)
}

func TestFetchAllMalformedPayload(t *testing.T) {
	client := newFakeClient(func(id string) (*source.Payload, error) {
		if id == "CVE-2023-0002" {
			// Decodes but carries no description.
			return &source.Payload{Source: source.KindCVE, CVE: &source.CVERecord{
				Metadata: source.CVEMetadata{ID: id},
			}}, nil
		}
		return foundPayload(id), nil
	})

	set, err := New(client, 2).FetchAll(context.Background(), []string{"CVE-2023-0001", "CVE-2023-0002"})
	require.NoError(t, err)

	require.Len(t, set.Records, 1)
	require.Len(t, set.Skipped, 1)
	assert.Equal(t, model.SkipError, set.Skipped[0].Reason)
	assert.Contains(t, set.Skipped[0].Detail, "malformed")
}
