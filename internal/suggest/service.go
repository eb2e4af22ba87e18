package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cvelens/cvelens/internal/metrics"
	"github.com/cvelens/cvelens/model"
)

const promptTemplate = "Tell me how to fix this CVE in less than 100 words. Here is the Information of the CVE in JSON: %s"

// SuggestionUnavailableError reports that no advice could be produced for
// the record.
type SuggestionUnavailableError struct {
	ID  string
	Err error
}

func (e *SuggestionUnavailableError) Error() string {
	return fmt.Sprintf("no suggestion available for %s: %v", e.ID, e.Err)
}

func (e *SuggestionUnavailableError) Unwrap() error {
	return e.Err
}

// Service asks the model for remediation advice and memoizes the answers
// per identifier. Only successful answers are kept, so a record whose
// lookup failed gets a fresh attempt on the next call. Concurrent calls
// for the same identifier collapse into one model request.
type Service struct {
	client ModelClient

	mu       sync.Mutex
	cache    map[string]string
	inflight map[string]chan struct{}
}

// NewService builds a suggestion service on top of client.
func NewService(client ModelClient) *Service {
	return &Service{
		client:   client,
		cache:    map[string]string{},
		inflight: map[string]chan struct{}{},
	}
}

// For returns remediation advice for the record.
func (s *Service) For(ctx context.Context, rec *model.Record) (string, error) {
	id := strings.ToUpper(rec.Metadata.ID)

	for {
		s.mu.Lock()
		if advice, ok := s.cache[id]; ok {
			s.mu.Unlock()
			metrics.Default.Suggestions.WithLabelValues("cached").Inc()
			return advice, nil
		}
		wait, waiting := s.inflight[id]
		if !waiting {
			done := make(chan struct{})
			s.inflight[id] = done
			s.mu.Unlock()
			return s.ask(ctx, id, rec, done)
		}
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (s *Service) ask(ctx context.Context, id string, rec *model.Record, done chan struct{}) (string, error) {
	defer func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
		close(done)
	}()

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", &SuggestionUnavailableError{ID: id, Err: err}
	}

	advice, err := s.client.Complete(ctx, fmt.Sprintf(promptTemplate, string(payload)))
	if err != nil {
		metrics.Default.Suggestions.WithLabelValues("error").Inc()
		return "", &SuggestionUnavailableError{ID: id, Err: err}
	}

	s.mu.Lock()
	s.cache[id] = advice
	s.mu.Unlock()
	metrics.Default.Suggestions.WithLabelValues("ok").Inc()
	return advice, nil
}
