package pubsub

import (
	"log/slog"
	"os"
	"strconv"
)

// LoadTracingConfigFromEnv reads the PUBSUB_TRACING_* keys over the
// defaults. Unparseable values are logged and ignored.
func LoadTracingConfigFromEnv() TracingConfig {
	cfg := DefaultTracingConfig()

	if v := os.Getenv("PUBSUB_TRACING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = enabled
		} else {
			slog.Warn("Ignoring invalid PUBSUB_TRACING_ENABLED", "value", v)
		}
	}
	if v := os.Getenv("PUBSUB_TRACING_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	if v := os.Getenv("PUBSUB_TRACING_ZIPKIN_URL"); v != "" {
		cfg.ZipkinURL = v
	}
	if v := os.Getenv("PUBSUB_TRACING_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			slog.Warn("Ignoring invalid PUBSUB_TRACING_SAMPLE_RATIO", "value", v)
		} else {
			cfg.SampleRatio = ratio
		}
	}
	return cfg
}
