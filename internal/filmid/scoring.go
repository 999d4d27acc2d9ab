package filmid

import (
	"time"

	"cinescrapers/internal/services/embedder"
	"cinescrapers/internal/textutil"
)

// Score components. Raw similarities below the floor carry no signal and
// contribute zero; above it they are rescaled to [0, 1].
const (
	overviewFloor = 0.2
	overviewScale = 1 - overviewFloor

	imageFloor = 0.65
	imageScale = 1 - imageFloor

	recencyBonus = 0.05

	// Sum of the maximum component values: overview 1.0 + image 1.0 +
	// recency 0.05.
	scoreDenominator = 2.05
)

// Scorer combines text, image, and recency evidence into a single confidence
// in [0, 1].
type Scorer struct {
	now func() time.Time
}

// NewScorer returns a scorer using the wall clock for recency checks.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// OverviewSimilarity measures lexical overlap between a listing description
// and a candidate overview. Either side being empty yields 0.
func OverviewSimilarity(description, overview string) float64 {
	if description == "" || overview == "" {
		return 0
	}
	return textutil.CosineSimilarity(textutil.NewFingerprint(description), textutil.NewFingerprint(overview))
}

// ImageSimilarity returns the best cosine similarity between the listing
// thumbnail embedding and any candidate artwork embedding. A missing
// embedding on either side is no evidence, not counter-evidence.
func ImageSimilarity(thumbnail []float64, candidates ...[]float64) float64 {
	if len(thumbnail) == 0 {
		return 0
	}
	best := 0.0
	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}
		if sim := embedder.Cosine(thumbnail, candidate); sim > best {
			best = sim
		}
	}
	return best
}

// Score folds the raw similarities and the candidate's release year into a
// confidence value. Recent releases get a small boost because current
// cinema programming skews heavily toward them.
func (s *Scorer) Score(overviewSim, imageSim float64, releaseYear int) float64 {
	total := rescale(overviewSim, overviewFloor, overviewScale) +
		rescale(imageSim, imageFloor, imageScale)

	if releaseYear >= s.now().Year()-1 {
		total += recencyBonus
	}

	return total / scoreDenominator
}

func rescale(sim, floor, scale float64) float64 {
	if sim <= floor {
		return 0
	}
	return (sim - floor) / scale
}
