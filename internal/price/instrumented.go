package price

import (
	"context"
	"errors"
	"time"

	"github.com/STTM-NSU/portfolio-tracker/internal/metrics"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

// Instrumented records lookup counts and latency of a source.
type Instrumented struct {
	Source
	metrics *metrics.Metrics
}

func NewInstrumented(s Source, m *metrics.Metrics) *Instrumented {
	return &Instrumented{Source: s, metrics: m}
}

func (s *Instrumented) Quote(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error) {
	start := time.Now()
	q, err := s.Source.Quote(ctx, symbol, instrumentType, market)
	if errors.Is(err, ErrUnsupported) {
		return q, err
	}
	s.metrics.ObserveLookup(s.Name(), start, err)
	return q, err
}
