package observability

import (
	"context"
	"strings"
	"testing"

	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestNewResource_DescribesProcess(t *testing.T) {
	res, err := newResource(context.Background(), TracerConfig{ServiceName: "devdeck-worker", Env: "staging"})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}

	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.AsString()
	}

	want := map[string]string{
		string(semconv.ServiceNameKey):           "devdeck-worker",
		string(semconv.ServiceNamespaceKey):      "devdeck",
		string(semconv.DeploymentEnvironmentKey): "staging",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s=%q, want %q", k, got[k], v)
		}
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		got := newSampler(tt.ratio).Description()
		if !strings.HasPrefix(got, "ParentBased{root:"+tt.want) {
			t.Fatalf("ratio %v: sampler=%q, want root %q", tt.ratio, got, tt.want)
		}
	}
}
