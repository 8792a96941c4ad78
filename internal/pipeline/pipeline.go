// Package pipeline runs one monitoring cycle end to end: fetch from every
// selected portal, reconcile against the store, notify, and refresh the
// dashboard artifact.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/dashboard"
	"github.com/mwalkowiak/flatwatch/internal/model"
	"github.com/mwalkowiak/flatwatch/internal/notify"
	"github.com/mwalkowiak/flatwatch/internal/portal"
	"github.com/mwalkowiak/flatwatch/internal/reconcile"
	"github.com/mwalkowiak/flatwatch/internal/store"
)

// Options wires the cycle's collaborators. Dispatcher and Renderer are
// optional; a nil one disables that stage.
type Options struct {
	Registry   *portal.Registry
	Client     *portal.Client
	Store      store.Store
	Engine     *reconcile.Engine
	Dispatcher *notify.Dispatcher
	Renderer   *dashboard.Renderer

	Portals        []string
	DashboardLimit int
}

// Runner executes monitoring cycles.
type Runner struct {
	opts Options
	now  func() time.Time
}

// New creates a cycle runner.
func New(opts Options) *Runner {
	return &Runner{opts: opts, now: time.Now}
}

// Run executes one cycle. Portals are fetched sequentially so the combined
// request rate stays predictable; a failing portal is logged and skipped, and
// never hides results from the others. The returned scan record is also
// persisted.
func (r *Runner) Run(ctx context.Context, criteria model.Criteria) (model.Scan, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	started := r.now()

	portals, err := r.opts.Registry.Select(r.opts.Portals)
	if err != nil {
		return model.Scan{}, eris.Wrap(err, "pipeline: select portals")
	}

	var candidates []model.Listing
	var names []string
	failedPortals := 0
	for _, p := range portals {
		names = append(names, string(p.Name()))
		listings, err := p.Fetch(ctx, r.opts.Client, criteria)
		if err != nil {
			log.Warn("portal fetch failed",
				zap.String("portal", string(p.Name())),
				zap.Error(err))
			failedPortals++
			continue
		}
		log.Info("portal fetched",
			zap.String("portal", string(p.Name())),
			zap.Int("listings", len(listings)))
		candidates = append(candidates, listings...)
	}

	out := r.opts.Engine.Reconcile(ctx, candidates)

	if r.opts.Dispatcher != nil {
		delivered := r.opts.Dispatcher.Dispatch(ctx, listingsOf(out.New), listingsOf(out.Changed))
		r.recordDeliveries(ctx, log, delivered, out.New)
	}

	if r.opts.Renderer != nil {
		if err := r.renderDashboard(ctx); err != nil {
			log.Error("dashboard refresh failed", zap.Error(err))
		}
	}

	scan := model.Scan{
		ID:        uuid.NewString(),
		StartedAt: started,
		Duration:  r.now().Sub(started),
		Portals:   strings.Join(names, ","),
		Found:     len(candidates),
		New:       len(out.New),
		Changed:   len(out.Changed),
		Failed:    failedPortals + out.Failed,
	}
	if err := r.opts.Store.RecordScan(ctx, scan); err != nil {
		log.Error("scan record failed", zap.Error(err))
	}

	log.Info("cycle complete",
		zap.String("scan_id", scan.ID),
		zap.Int("found", scan.Found),
		zap.Int("new", scan.New),
		zap.Int("changed", scan.Changed),
		zap.Int("failed", scan.Failed),
		zap.Duration("duration", scan.Duration))
	return scan, nil
}

// recordDeliveries writes one audit row per delivered channel per new listing.
func (r *Runner) recordDeliveries(ctx context.Context, log *zap.Logger, channels []string, newListings []reconcile.Observed) {
	at := r.now()
	for _, ch := range channels {
		for _, obs := range newListings {
			if err := r.opts.Store.RecordNotification(ctx, obs.Key, ch, at); err != nil {
				log.Warn("notification audit failed",
					zap.String("channel", ch),
					zap.String("key", obs.Key),
					zap.Error(err))
			}
		}
	}
}

func (r *Runner) renderDashboard(ctx context.Context) error {
	recent, err := r.opts.Store.Recent(ctx, r.opts.DashboardLimit)
	if err != nil {
		return err
	}
	counts, err := r.opts.Store.CountByPortal(ctx)
	if err != nil {
		return err
	}
	return r.opts.Renderer.Render(recent, counts)
}

func listingsOf(observed []reconcile.Observed) []model.Listing {
	if len(observed) == 0 {
		return nil
	}
	out := make([]model.Listing, len(observed))
	for i, o := range observed {
		out[i] = o.Listing
	}
	return out
}
