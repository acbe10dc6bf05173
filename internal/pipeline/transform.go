package pipeline

import (
	"context"
	"log/slog"

	"github.com/embiggeneye/crater-etl/internal/domain"
)

// CraterTransformer implements Transformer using the domain normalizer with
// optional PSR overlap enrichment.
type CraterTransformer struct {
	opts   domain.Options
	psr    *domain.PSRIndex
	logger *slog.Logger
}

// NewTransformer creates a CraterTransformer. A nil PSR index disables
// overlap enrichment; records keep whatever psr_overlap they supplied.
func NewTransformer(opts domain.Options, psr *domain.PSRIndex, logger *slog.Logger) *CraterTransformer {
	return &CraterTransformer{
		opts:   opts,
		psr:    psr,
		logger: logger,
	}
}

// Transform decodes and normalizes one raw event. Decoding is the only
// failure mode: a record that is valid JSON but missing everything still
// normalizes, it just comes out unplaceable with no measurements.
func (t *CraterTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Feature, error) {
	rec, err := domain.DecodeRawRecord(raw.Value)
	if err != nil {
		return domain.Feature{}, err
	}

	feature := domain.Normalize(rec, t.opts)

	// Recompute a missing PSR overlap from center-point containment when
	// polygons are available. Supplied overlap fractions win.
	if feature.PSROverlap == nil && feature.Placeable() && t.psr.Size() > 0 {
		frac := t.psr.OverlapFraction(*feature.Lat, *feature.Lon)
		feature.PSROverlap = &frac
	}

	return feature, nil
}

// ScoreEstimator implements Estimator with configurable component weights.
type ScoreEstimator struct {
	weights domain.ScoreWeights
}

// NewEstimator creates a ScoreEstimator.
func NewEstimator(weights domain.ScoreWeights) *ScoreEstimator {
	return &ScoreEstimator{weights: weights}
}

func (s *ScoreEstimator) EstimateBatch(features []domain.Feature) {
	domain.EstimateMissingScoresWeighted(features, s.weights)
}
