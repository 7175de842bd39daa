package telemetry

import (
	"context"
	"testing"
)

func TestNoopImplementations_SatisfyInterfaces(t *testing.T) {
	var _ Logger = NoopLogger{}
	var _ Metrics = NoopMetrics{}
	var _ Tracer = NoopTracer{}

	ctx := context.Background()
	logger := NoopLogger{}
	logger.Info(ctx, "test", "k", "v")

	tracer := NoopTracer{}
	_, span := tracer.Start(ctx, "op")
	span.End()
}
