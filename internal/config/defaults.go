/**
 * Configuration Defaults.
 *
 * Provides sane default values for every recognized configuration
 * option so a zero-value or partial config file is always valid.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

// DefaultConfig returns a Config populated with the defaults named in
// the external interfaces specification.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Interface:  nil,
			BufferSize: 1000,
		},
		Bus: BusConfig{
			Topic: "sh.telemetry.traffic.v1",
		},
		Probe: ProbeConfig{
			Enabled:   true,
			MaxPerMin: 10,
			CooldownS: 300,
			TimeoutS:  5,
		},
		Response: ResponseConfig{
			Enabled:    true,
			MaxBlocked: 500,
			TTLSeconds: 3600,
		},
		Graph: GraphConfig{
			CentralityIntervalS: 60,
			CentralityThreshold: 0.3,
			MinConnections:      3,
		},
		Session: SessionConfig{
			WindowMinutes: 30,
		},
		ML: MLConfig{
			Enabled: true,
		},
		GeoIP: GeoIPConfig{
			DatabasePath: nil,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
