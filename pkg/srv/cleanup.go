package srv

import (
	"context"

	"github.com/sandevgo/hashia/pkg/log"
)

// cleanupService runs a release function on shutdown and does nothing on start.
type cleanupService struct {
	cleanup func(ctx context.Context) error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	if c.cleanup != nil {
		return c.cleanup(ctx)
	}
	return nil
}

func NewCleanup(fn func() error) Service {
	if fn == nil {
		return &cleanupService{}
	}
	return &cleanupService{cleanup: func(context.Context) error { return fn() }}
}

// NewCleanupCtx is NewCleanup for release functions that honour the shutdown deadline.
func NewCleanupCtx(fn func(ctx context.Context) error) Service {
	return &cleanupService{cleanup: fn}
}

// oneShotService runs a best-effort task once on start. Failures are logged, never fatal.
type oneShotService struct {
	name string
	task func(ctx context.Context) error
}

func (o *oneShotService) Start(ctx context.Context) error {
	if err := o.task(ctx); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("task", o.name).Msg("startup task failed")
	}
	return nil
}

func (o *oneShotService) Shutdown(ctx context.Context) error {
	return nil
}

func NewOneShot(name string, task func(ctx context.Context) error) Service {
	return &oneShotService{name: name, task: task}
}
