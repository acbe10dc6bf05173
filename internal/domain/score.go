package domain

// WaterScore provenance values.
const (
	ScoreSourceSupplied  = "supplied"
	ScoreSourceEstimated = "estimated"
)

// ScoreWeights are the component weights of the water-likelihood estimate.
// They are a design choice, not fitted to data.
type ScoreWeights struct {
	PSR      float64 `yaml:"psr" json:"psr"`
	Hydrogen float64 `yaml:"hydrogen" json:"hydrogen"`
	Spectral float64 `yaml:"spectral" json:"spectral"`
	Depth    float64 `yaml:"depth" json:"depth"`
}

// DefaultScoreWeights favor the shadow and hydrogen signals; depth is a weak
// tiebreaker.
var DefaultScoreWeights = ScoreWeights{
	PSR:      0.35,
	Hydrogen: 0.30,
	Spectral: 0.30,
	Depth:    0.05,
}

// scoreRange holds the batch-wide min/max of one measurement.
type scoreRange struct {
	min, max float64
	seen     bool
}

func (r *scoreRange) observe(v float64) {
	if !r.seen {
		r.min, r.max, r.seen = v, v, true
		return
	}
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
}

// normalize min-max scales a value into [0, 1]. An empty range is degenerate
// and always yields 0; a zero span divides by 1 instead.
func (r *scoreRange) normalize(v float64) float64 {
	if !r.seen {
		return 0
	}
	span := r.max - r.min
	if span == 0 {
		span = 1
	}
	return clamp01((v - r.min) / span)
}

// EstimateMissingScores fills in WaterScore for every feature that did not
// supply one, mutating the batch in place.
//
// It must run once over the complete batch: component values are min-max
// normalized against batch-wide ranges. Per feature, the weight of any nil
// component is dropped and the remaining weights renormalize to sum to 1, so
// a feature with a single measurement is scored entirely from that
// measurement rather than penalized for the gaps. A feature with no
// measurements at all scores 0.
//
// Postcondition: every feature has a non-nil WaterScore in [0, 1]; supplied
// scores are untouched.
func EstimateMissingScores(features []Feature) {
	EstimateMissingScoresWeighted(features, DefaultScoreWeights)
}

// EstimateMissingScoresWeighted is EstimateMissingScores with explicit
// component weights.
func EstimateMissingScoresWeighted(features []Feature, weights ScoreWeights) {
	var psrRange, hydrogenRange, spectralRange, depthRange scoreRange
	for i := range features {
		observeIfPresent(&psrRange, features[i].PSROverlap)
		observeIfPresent(&hydrogenRange, features[i].HydrogenMean)
		observeIfPresent(&spectralRange, features[i].SpectralMean)
		observeIfPresent(&depthRange, features[i].DepthMetric)
	}

	for i := range features {
		f := &features[i]
		if f.WaterScore != nil {
			continue
		}

		components := []struct {
			value  *float64
			weight float64
			rng    *scoreRange
		}{
			{f.PSROverlap, weights.PSR, &psrRange},
			{f.HydrogenMean, weights.Hydrogen, &hydrogenRange},
			{f.SpectralMean, weights.Spectral, &spectralRange},
			{f.DepthMetric, weights.Depth, &depthRange},
		}

		totalWeight := 0.0
		for _, c := range components {
			if c.value != nil {
				totalWeight += c.weight
			}
		}

		score := 0.0
		if totalWeight > 0 {
			for _, c := range components {
				if c.value == nil {
					continue
				}
				score += (c.weight / totalWeight) * c.rng.normalize(*c.value)
			}
		}

		score = clamp01(score)
		f.WaterScore = &score
		f.ScoreSource = ScoreSourceEstimated
	}
}

func observeIfPresent(r *scoreRange, v *float64) {
	if v != nil {
		r.observe(*v)
	}
}
