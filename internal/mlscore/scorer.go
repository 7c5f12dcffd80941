/**
 * ML Scorer Orchestration.
 *
 * Wires the feature extractor, anomaly scorer, and classifier
 * together and applies the escalation semantics: ML never downgrades
 * a rule-based verdict, but can turn a non-anomalous flow into one
 * when its classification or anomaly score is confident enough.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package mlscore

import (
	"fmt"

	"github.com/kleaSCM/shadowhunter/internal/models"
)

// Scorer extracts features and runs both models against a FlowEvent.
type Scorer struct {
	extractor  *Extractor
	anomaly    AnomalyScorer
	classifier Classifier
}

// New builds a Scorer with the heuristic fallback implementations.
// Pass a trained AnomalyScorer/Classifier to override either.
func New(anomaly AnomalyScorer, classifier Classifier) *Scorer {
	if anomaly == nil {
		anomaly = NewHeuristicAnomalyScorer()
	}
	if classifier == nil {
		classifier = NewHeuristicClassifier()
	}
	return &Scorer{extractor: NewExtractor(), anomaly: anomaly, classifier: classifier}
}

// Result bundles the raw scores for attachment to an Alert.
type Result struct {
	AnomalyScore   float64
	IsAnomalous    bool
	Classification string
	Confidence     float64
}

// Score runs the full ML pipeline against event.
func (s *Scorer) Score(event *models.FlowEvent) Result {
	v := s.extractor.Extract(event)
	anomalyScore := s.anomaly.Score(v)
	prediction := s.classifier.Predict(v)

	return Result{
		AnomalyScore:   anomalyScore,
		IsAnomalous:    IsAnomalous(anomalyScore),
		Classification: prediction.Label,
		Confidence:     prediction.Confidence,
	}
}

// Escalate applies the ML escalation semantics described in the
// detector pipeline's design: when ruleAnomalous is already true, ML
// augments but never downgrades. Otherwise it may promote the flow to
// anomalous at an ML-assigned severity. ok reports whether ML
// produced an escalation.
func Escalate(result Result, ruleAnomalous bool) (ok bool, severity models.Severity, reason string) {
	if ruleAnomalous {
		return false, 0, ""
	}

	switch {
	case result.Classification == LabelShadowAI && result.Confidence > 0.70:
		return true, models.SeverityHigh, fmt.Sprintf("ML detected Shadow AI (%.0f%% confidence)", result.Confidence*100)
	case result.Classification == LabelSuspicious && result.Confidence > 0.80:
		return true, models.SeverityMedium, fmt.Sprintf("ML flagged suspicious traffic (%.0f%% confidence)", result.Confidence*100)
	case result.IsAnomalous:
		return true, models.SeverityLow, fmt.Sprintf("Anomaly detected (score: %.2f)", result.AnomalyScore)
	default:
		return false, 0, ""
	}
}
