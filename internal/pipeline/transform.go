package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/couchcryptid/supply-map-service/internal/observability"
)

const streamKind = "stream"

// JoinTransformer implements Transformer by joining each subject record
// against the current reference index.
type JoinTransformer struct {
	index         func() *domain.RegionIndex
	locationField string
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewTransformer creates a JoinTransformer. index is called per message so a
// reloaded reference table takes effect without restarting the pipeline.
func NewTransformer(index func() *domain.RegionIndex, locationField string, metrics *observability.Metrics, logger *slog.Logger) *JoinTransformer {
	return &JoinTransformer{
		index:         index,
		locationField: locationField,
		metrics:       metrics,
		logger:        logger,
	}
}

// Transform parses the message as one subject record and joins it. Records
// whose location has no reference region fail with ErrUnmatchedLocation.
func (t *JoinTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	subject, err := domain.ParseSubject(raw.Value, t.locationField)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	joined, err := t.index().JoinOne(subject)
	if err != nil {
		t.metrics.RecordsUnmatched.WithLabelValues(streamKind).Inc()
		return domain.OutputEvent{}, fmt.Errorf("%w: %q", err, subject.LocationKey)
	}
	t.metrics.RecordsJoined.WithLabelValues(streamKind).Inc()

	value, err := json.Marshal(joined)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize joined record: %w", err)
	}
	return domain.OutputEvent{
		Key:   []byte(domain.NormalizeKey(subject.LocationKey)),
		Value: value,
		Headers: map[string]string{
			"location":  subject.LocationKey,
			"joined_at": domain.Now().Format(time.RFC3339),
		},
	}, nil
}
