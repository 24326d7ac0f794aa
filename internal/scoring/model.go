package scoring

import "github.com/Wuchinator/intent-scoring/internal/feature"

// ModelScorer is the contract for an optional learned-model collaborator: it
// consumes the same user-features table and returns one conversion
// probability in [0,1] per user, in input order. The pipeline does not
// depend on any implementation; rule-based scoring is the authoritative path.
type ModelScorer interface {
	Predict(users []feature.UserFeatures) ([]float64, error)
}
