package events

import (
	"context"

	"carbon-ledger/internal/ledger"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Source reads committed events in sequence order.
type Source interface {
	Events(ctx context.Context, after uint64, limit int) ([]ledger.Event, error)
}

type Service struct {
	Source Source
}

// Page is one slice of the event feed. Next is the cursor for the following
// page and equals the request cursor when nothing newer exists.
type Page struct {
	Events []ledger.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// List returns up to limit events with seq greater than after.
func (s *Service) List(ctx context.Context, after uint64, limit int) (*Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	evs, err := s.Source.Events(ctx, after, limit)
	if err != nil {
		return nil, err
	}
	p := &Page{Events: evs, Next: after}
	if n := len(evs); n > 0 {
		p.Next = evs[n-1].Seq
	}
	return p, nil
}
