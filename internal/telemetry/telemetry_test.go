package telemetry

import (
	"context"
	"testing"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "stream-addon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

func TestInitRejectsBadEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "stream-addon", Endpoint: "http://"})
	if err == nil {
		t.Fatalf("expected error for endpoint without host")
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown even on error")
	}
}

func TestCollectorAddress(t *testing.T) {
	tests := []struct {
		endpoint string
		host     string
		insecure bool
	}{
		{"otel-collector:4318", "otel-collector:4318", true},
		{"http://otel-collector:4318", "otel-collector:4318", true},
		{"https://traces.example.com", "traces.example.com", false},
	}
	for _, tt := range tests {
		host, insecure, err := collectorAddress(tt.endpoint)
		if err != nil {
			t.Fatalf("collectorAddress(%q): %v", tt.endpoint, err)
		}
		if host != tt.host || insecure != tt.insecure {
			t.Errorf("collectorAddress(%q) = %q, %v, want %q, %v", tt.endpoint, host, insecure, tt.host, tt.insecure)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", " collector:4318 ")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	cfg := ConfigFromEnv("stream-addon")
	if cfg.Endpoint != "collector:4318" || cfg.SampleRatio != 0.25 || cfg.ServiceName != "stream-addon" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "7")
	if got := ConfigFromEnv("stream-addon").SampleRatio; got != 1 {
		t.Fatalf("expected out-of-range ratio to fall back to 1, got %v", got)
	}
}
