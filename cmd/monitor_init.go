package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/dashboard"
	"github.com/mwalkowiak/flatwatch/internal/notify"
	"github.com/mwalkowiak/flatwatch/internal/pipeline"
	"github.com/mwalkowiak/flatwatch/internal/portal"
	"github.com/mwalkowiak/flatwatch/internal/reconcile"
	"github.com/mwalkowiak/flatwatch/internal/store"
)

// monitorEnv holds the initialized store and cycle runner needed by the
// scan/watch/status commands.
type monitorEnv struct {
	Store    store.Store
	Runner   *pipeline.Runner
	Renderer *dashboard.Renderer
}

// Close releases resources held by the environment.
func (me *monitorEnv) Close() {
	if me.Store != nil {
		_ = me.Store.Close()
	}
}

// initMonitor sets up the store, portal registry, notification channels, and
// the cycle runner. Callers should defer env.Close().
func initMonitor(ctx context.Context) (*monitorEnv, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	registry := portal.Default()
	if cfg.Scan.MaxPerPortal > 0 {
		for _, p := range registry.All() {
			if capped, ok := p.(interface{ SetMaxItems(int) }); ok {
				capped.SetMaxItems(cfg.Scan.MaxPerPortal)
			}
		}
	}

	client := portal.NewClient(time.Duration(cfg.Scan.TimeoutSecs) * time.Second)

	var channels []notify.Notifier
	if cfg.Notify.Email.Enabled {
		channels = append(channels, notify.NewEmailNotifier(cfg.Notify.Email))
		zap.L().Info("email notifications enabled",
			zap.Int("recipients", len(cfg.Notify.Email.Recipients)))
	}
	if cfg.Notify.Telegram.Enabled {
		channels = append(channels, notify.NewTelegramNotifier(cfg.Notify.Telegram))
		zap.L().Info("telegram notifications enabled")
	}
	var dispatcher *notify.Dispatcher
	if len(channels) > 0 {
		dispatcher = notify.NewDispatcher(cfg.Notify.OnPriceChange, channels...)
	} else {
		zap.L().Debug("no notification channels configured")
	}

	renderer, err := dashboard.NewRenderer(cfg.Dashboard.Path)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	runner := pipeline.New(pipeline.Options{
		Registry:       registry,
		Client:         client,
		Store:          st,
		Engine:         reconcile.NewEngine(st, cfg.Criteria),
		Dispatcher:     dispatcher,
		Renderer:       renderer,
		Portals:        cfg.Portals,
		DashboardLimit: cfg.Dashboard.Limit,
	})

	return &monitorEnv{
		Store:    st,
		Runner:   runner,
		Renderer: renderer,
	}, nil
}
