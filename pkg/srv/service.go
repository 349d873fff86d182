package srv

import (
	"context"
	"time"

	"github.com/sandevgo/hashia/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices blocks until ctx is done, then shuts the services down in
// declaration order. The parent ctx is already cancelled at that point, so
// every Shutdown gets its own fresh context bounded by timeout: a slow service
// does not eat the budget of the ones after it.
func ShutdownServices(ctx context.Context, services []Service, timeout time.Duration) {
	<-ctx.Done()

	for _, service := range services {
		shutdownOne(ctx, service, timeout)
	}
}

func shutdownOne(ctx context.Context, service Service, timeout time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := service.Shutdown(shutdownCtx); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", service)
	}
}
