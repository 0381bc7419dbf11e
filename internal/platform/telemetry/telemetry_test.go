package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/internal/platform/config"
)

func TestNew_NoEndpointKeepsSpansInProcess(t *testing.T) {
	p, err := New(context.Background(), config.TelemetryConfig{ServiceName: "empverify-test"})
	require.NoError(t, err)
	require.NotNil(t, p.TracerProvider)

	_, span := p.TracerProvider.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name         string
		endpoint     string
		wantTarget   string
		wantInsecure bool
		wantErr      bool
	}{
		{name: "bare host port", endpoint: "collector:4317", wantTarget: "collector:4317", wantInsecure: true},
		{name: "http url with path", endpoint: "http://localhost:4317/v1/traces", wantTarget: "localhost:4317", wantInsecure: true},
		{name: "https url", endpoint: "https://otel.example.com:4317", wantTarget: "otel.example.com:4317"},
		{name: "missing host", endpoint: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, insecure, err := parseEndpoint(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTarget, target)
			assert.Equal(t, tt.wantInsecure, insecure)
		})
	}
}
