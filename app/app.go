package app

import (
	"context"

	"github.com/sqzr-sharding/sqzr/cluster"
	"github.com/sqzr-sharding/sqzr/lockdb"
	"github.com/sqzr-sharding/sqzr/pkg/config"
	"github.com/sqzr-sharding/sqzr/shrink"
)

type App struct {
	runner *shrink.Runner
}

func NewApp(cfg *config.Shrink) (*App, error) {
	locks, err := lockdb.NewLockDB(cfg.LockBackend)
	if err != nil {
		return nil, err
	}

	action := shrink.NewAction(cfg, cluster.NewRestClient(cfg.ClusterEndpoint), locks)

	return &App{
		runner: shrink.NewRunner(action, cfg.PollInterval()),
	}, nil
}

func (a *App) ProcShrink(ctx context.Context, sourceIndex string) error {
	return a.runner.Run(ctx, sourceIndex)
}
