/**
 * Anomaly Scorer.
 *
 * AnomalyScorer is the interface a trained unsupervised model (an
 * Isolation Forest equivalent) would implement; the only
 * implementation shipped here is the statistical-outlier heuristic
 * ported from
 * original_source/services/intelligence/models/anomaly.py's
 * _fallback_predict, used whenever no trained model is loaded.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package mlscore

// AnomalyThreshold is the score below which a flow is considered
// anomalous. Scores are never positive; lower is more anomalous.
const AnomalyThreshold = -0.2

// AnomalyScorer scores a feature vector; lower is more anomalous.
// Implementations must degrade gracefully (never panic or error) on
// any input vector, including one from a differently-sized model.
type AnomalyScorer interface {
	Score(v Vector) float64
}

// HeuristicAnomalyScorer is a weighted statistical-outlier fallback:
// large byte counts, an external destination, and a non-standard port
// each raise the risk estimate.
type HeuristicAnomalyScorer struct{}

// NewHeuristicAnomalyScorer constructs the fallback scorer.
func NewHeuristicAnomalyScorer() *HeuristicAnomalyScorer {
	return &HeuristicAnomalyScorer{}
}

// Score reproduces the Python fallback's weighting exactly: byte
// score (log bytes sent + received) weighted 0.3, external
// destination weighted 0.4, non-standard port weighted 0.3, summed,
// negated and divided by 10. The result is not clamped: large byte
// counts push it below -1.
func (s *HeuristicAnomalyScorer) Score(v Vector) float64 {
	byteScore := v[2] + v[3]
	isExternal := 1.0 - v[6]
	unusualPort := 1.0 - v[7]

	risk := byteScore*0.3 + isExternal*0.4 + unusualPort*0.3
	return -risk / 10.0
}

// IsAnomalous reports whether score falls below AnomalyThreshold.
func IsAnomalous(score float64) bool {
	return score < AnomalyThreshold
}
