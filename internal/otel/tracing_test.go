package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	core, logs := observer.New(zapcore.InfoLevel)

	shutdown, err := Init(context.Background(), zap.New(core))

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	entries := logs.FilterMessage("tracing_configured").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, false, entries[0].ContextMap()["tracing_enabled"])
}

func TestInit_UnsupportedProtocolDegrades(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	core, logs := observer.New(zapcore.InfoLevel)

	shutdown, err := Init(context.Background(), zap.New(core))

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("tracing_init_failed").Len())
}

func TestGetSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    string
	}{
		{"always_on", "", trace.AlwaysSample().Description()},
		{"always_off", "", trace.NeverSample().Description()},
		{"traceidratio", "0.25", trace.TraceIDRatioBased(0.25).Description()},
		{"traceidratio", "garbage", trace.TraceIDRatioBased(1).Description()},
		{"parentbased_traceidratio", "0.5", trace.ParentBased(trace.TraceIDRatioBased(0.5)).Description()},
		{"", "", trace.ParentBased(trace.AlwaysSample()).Description()},
	}

	for _, tt := range tests {
		t.Run(tt.sampler+"/"+tt.arg, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)

			assert.Equal(t, tt.want, getSampler().Description())
		})
	}
}

func TestParseRatio(t *testing.T) {
	assert.Equal(t, 0.1, parseRatio("0.1"))
	assert.Equal(t, 1.0, parseRatio(""))
	assert.Equal(t, 1.0, parseRatio("2"))
	assert.Equal(t, 1.0, parseRatio("-1"))
}
