/**
 * Detection Plugin Interface & Registry.
 *
 * A detection plugin is a pure function over a FlowEvent: it never
 * blocks, never mutates the event, and returns at most one verdict.
 * Plugins register themselves from an init() in their own file —
 * independently instantiable detector structs rather than a
 * reflection-based plugin loader.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package detector

import "github.com/kleaSCM/shadowhunter/internal/models"

// Plugin is one detection rule.
type Plugin interface {
	// Name identifies the plugin in logs and in Alert.MatchedRule.
	Name() string
	// Detect inspects event and reports whether it is anomalous, at
	// what severity, and why. ok is false when the plugin found
	// nothing — severity and reason are meaningless in that case.
	Detect(event *models.FlowEvent) (ok bool, severity models.Severity, reason string)
}

var registry []Plugin

// Register adds a plugin to the default pipeline. Call from an
// init() in the plugin's own file; registration order is the
// tiebreak when two plugins report the same severity.
func Register(p Plugin) {
	registry = append(registry, p)
}

// Registered returns the plugins registered so far, in registration
// order.
func Registered() []Plugin {
	out := make([]Plugin, len(registry))
	copy(out, registry)
	return out
}
