package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Operation outcomes
const (
	OutcomeCommitted = "committed"
	OutcomeNoop      = "noop"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)

// CatalogMetrics counts catalog write operations and how their commits went.
// A nil *CatalogMetrics records nothing.
type CatalogMetrics struct {
	operations       *Counter
	conflicts        *Counter
	validationIssues *Counter
	commitDuration   *Histogram
}

// MetricsError reports a failure building an instrument set.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCatalogMetrics", Err: "meter cannot be nil"}

// NewCatalogMetrics creates the catalog instruments on meter.
func NewCatalogMetrics(meter metric.Meter) (*CatalogMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	operations, err := NewCounter(meter,
		"catalog_operation_total",
		"Catalog write operations by outcome",
		"{operation}",
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := NewCounter(meter,
		"catalog_commit_conflict_total",
		"Atomic commits rejected by a concurrent writer",
		"{conflict}",
	)
	if err != nil {
		return nil, err
	}

	validationIssues, err := NewCounter(meter,
		"catalog_validation_issue_total",
		"Rejection reasons reported to callers, by code",
		"{issue}",
	)
	if err != nil {
		return nil, err
	}

	commitDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "catalog_commit_duration_seconds",
		Description: "Latency of one atomic plan application",
		Unit:        "s",
		Boundaries:  CommitDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &CatalogMetrics{
		operations:       operations,
		conflicts:        conflicts,
		validationIssues: validationIssues,
		commitDuration:   commitDuration,
	}, nil
}

// RecordOperation counts one finished operation.
func (m *CatalogMetrics) RecordOperation(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.operations.Inc(ctx, AttrOperation.String(op), AttrOutcome.String(outcome))
}

// RecordConflict counts a commit that lost to a concurrent writer.
func (m *CatalogMetrics) RecordConflict(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(ctx, AttrOperation.String(op))
}

// RecordIssues counts rejection codes.
func (m *CatalogMetrics) RecordIssues(ctx context.Context, op string, codes ...string) {
	if m == nil {
		return
	}
	for _, code := range codes {
		m.validationIssues.Inc(ctx, AttrOperation.String(op), AttrCode.String(code))
	}
}

// RecordCommit records how long one plan application took.
func (m *CatalogMetrics) RecordCommit(ctx context.Context, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.commitDuration.RecordDuration(ctx, d, AttrOperation.String(op))
}
