package source

import (
	"context"
	"errors"
)

// Chain consults databases in order until one resolves the identifier.
// It moves on when a database has no record or stays unreachable after
// retries; a fatal rejection is reported immediately since asking
// another database will not heal a bad request. When every database
// fails, the last failure wins because the database asked last had the
// final word on the record.
type Chain struct {
	clients []Client
}

// NewChain builds a fallback chain over clients, consulted in the given
// order.
func NewChain(clients ...Client) *Chain {
	return &Chain{clients: clients}
}

func (c *Chain) Name() Kind {
	return KindChain
}

// Fetch tries each database in turn. The payload reports the database
// that actually resolved the record, not the chain.
func (c *Chain) Fetch(ctx context.Context, id string) (*Payload, error) {
	var lastErr error
	for _, client := range c.clients {
		if ctx.Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, &SourceError{Source: c.Name(), ID: id, Kind: FailureFatal, Err: ctx.Err()}
		}

		payload, err := client.Fetch(ctx, id)
		if err == nil {
			return payload, nil
		}
		if IsFatal(err) {
			return nil, err
		}
		lastErr = err
		logger.Sugar().Infof("%s could not resolve %s, trying next database: %v", client.Name(), id, err)
	}
	if lastErr == nil {
		return nil, &SourceError{Source: c.Name(), ID: id, Kind: FailureFatal, Err: errors.New("no databases configured")}
	}
	return nil, lastErr
}
