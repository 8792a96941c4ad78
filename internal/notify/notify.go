// Package notify delivers new-listing digests over the configured channels.
// Delivery failures are logged, never propagated: a lost email does not roll
// back an insert or block the cycle.
package notify

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// Notifier is one delivery channel.
type Notifier interface {
	// Name returns the channel identifier ("email", "telegram").
	Name() string

	// NotifyNew delivers a digest of newly discovered listings.
	NotifyNew(ctx context.Context, listings []model.Listing) error
}

// PriceChangeNotifier is an optional interface for channels that also want
// price-change events. Nothing implements delivery of these by default; the
// hookup is configuration.
type PriceChangeNotifier interface {
	Notifier
	NotifyPriceChange(ctx context.Context, listings []model.Listing) error
}

// Dispatcher fans a cycle's results out to every configured channel.
type Dispatcher struct {
	notifiers     []Notifier
	onPriceChange bool
}

// NewDispatcher creates a dispatcher over the given channels. When
// onPriceChange is set, channels implementing PriceChangeNotifier also
// receive price-change events.
func NewDispatcher(onPriceChange bool, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, onPriceChange: onPriceChange}
}

// Dispatch sends the new-listing digest on every channel concurrently and
// returns the names of the channels that succeeded. Changed listings go out
// only when the price-change hookup is enabled.
func (d *Dispatcher) Dispatch(ctx context.Context, newListings, changed []model.Listing) []string {
	log := zap.L().With(zap.String("component", "notify"))

	var delivered []string
	if len(newListings) > 0 {
		results := make([]bool, len(d.notifiers))

		g, gctx := errgroup.WithContext(ctx)
		for i, n := range d.notifiers {
			g.Go(func() error {
				if err := n.NotifyNew(gctx, newListings); err != nil {
					log.Error("delivery failed",
						zap.String("channel", n.Name()),
						zap.Error(err))
					return nil // other channels still get their chance
				}
				log.Info("delivered new-listing digest",
					zap.String("channel", n.Name()),
					zap.Int("listings", len(newListings)))
				results[i] = true
				return nil
			})
		}
		_ = g.Wait()

		for i, ok := range results {
			if ok {
				delivered = append(delivered, d.notifiers[i].Name())
			}
		}
	}

	if d.onPriceChange && len(changed) > 0 {
		for _, n := range d.notifiers {
			pc, ok := n.(PriceChangeNotifier)
			if !ok {
				continue
			}
			if err := pc.NotifyPriceChange(ctx, changed); err != nil {
				log.Error("price-change delivery failed",
					zap.String("channel", n.Name()),
					zap.Error(err))
			}
		}
	}

	return delivered
}
