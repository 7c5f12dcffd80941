/**
 * Detector Pipeline.
 *
 * Runs every registered plugin against a FlowEvent and keeps the
 * highest-severity hit, resolving ties by plugin registration order.
 * A whitelisted flow short-circuits before any plugin runs.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package detector

import "github.com/kleaSCM/shadowhunter/internal/models"

// Verdict is the outcome of running the pipeline against one event.
type Verdict struct {
	Anomalous bool
	Severity  models.Severity
	Reason    string
	Plugin    string
}

// Pipeline evaluates a FlowEvent against the registered plugins.
type Pipeline struct {
	plugins []Plugin
}

// NewPipeline builds a pipeline over the plugins registered via
// Register. Passing an explicit plugin list (e.g. in tests) bypasses
// the global registry.
func NewPipeline(plugins ...Plugin) *Pipeline {
	if len(plugins) == 0 {
		plugins = Registered()
	}
	return &Pipeline{plugins: plugins}
}

// Evaluate runs every plugin and returns the highest-severity
// verdict. A whitelisted event, or one no plugin flags, returns a
// non-anomalous Verdict.
func (p *Pipeline) Evaluate(event *models.FlowEvent) Verdict {
	if IsWhitelisted(event) {
		return Verdict{}
	}

	var best Verdict
	for _, plugin := range p.plugins {
		ok, severity, reason := plugin.Detect(event)
		if !ok {
			continue
		}
		if !best.Anomalous || severity > best.Severity {
			best = Verdict{Anomalous: true, Severity: severity, Reason: reason, Plugin: plugin.Name()}
		}
	}
	return best
}
