package acceptance

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/duetlog/duet-service/internal/app"
	"github.com/duetlog/duet-service/internal/store"
	"github.com/duetlog/duet-service/pkg/database"
	"github.com/duetlog/duet-service/pkg/observability"
)

// testInfrastructure satisfies app.Infrastructure with test doubles, so the
// suite exercises the same application object main.go runs.
type testInfrastructure struct {
	store          store.Store
	redis          *database.Redis
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ app.Infrastructure = &testInfrastructure{}

func newTestInfrastructure(st store.Store, redis *database.Redis) (*testInfrastructure, error) {
	logger, err := observability.InitLogger("test")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	meterProvider, metricsHandler, err := observability.InitTelemetry("duet-service-test")
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &testInfrastructure{
		store:          st,
		redis:          redis,
		logger:         logger,
		metricsHandler: metricsHandler,
		meterProvider:  meterProvider,
	}, nil
}

func (i *testInfrastructure) Store() store.Store {
	return i.store
}

func (i *testInfrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *testInfrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *testInfrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *testInfrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *testInfrastructure) Shutdown(ctx context.Context) error {
	_ = i.logger.Sync()
	return observability.Shutdown(ctx, i.meterProvider, i.logger)
}
