package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

var watchPort int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor continuously and serve the dashboard",
	Long:  "Runs a cycle immediately, then repeats on the configured interval. The HTTP server keeps serving the dashboard and a small JSON API between cycles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initMonitor(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := watchPort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		go runLoop(ctx, env)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// runLoop executes cycles until the context is canceled. The first cycle runs
// immediately so a fresh start produces a dashboard right away.
func runLoop(ctx context.Context, env *monitorEnv) {
	interval := time.Duration(cfg.Scan.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	runOnce := func() {
		if _, err := env.Runner.Run(ctx, cfg.Criteria); err != nil {
			zap.L().Error("cycle failed", zap.Error(err))
		}
	}

	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func newRouter(env *monitorEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, env.Renderer.Path())
	})

	r.Get("/api/listings", func(w http.ResponseWriter, req *http.Request) {
		recent, err := env.Store.Recent(req.Context(), cfg.Dashboard.Limit)
		if err != nil {
			zap.L().Error("listings query failed", zap.Error(err))
			http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listingsResponse(recent))
	})

	r.Get("/api/scans", func(w http.ResponseWriter, req *http.Request) {
		scans, err := env.Store.RecentScans(req.Context(), 20)
		if err != nil {
			zap.L().Error("scans query failed", zap.Error(err))
			http.Error(w, `{"error":"query failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(scans)
	})

	return r
}

type listingJSON struct {
	Portal     string    `json:"portal"`
	Title      string    `json:"title"`
	Price      int64     `json:"price"`
	Area       *float64  `json:"area,omitempty"`
	PricePerM2 float64   `json:"price_per_m2,omitempty"`
	Location   string    `json:"location"`
	URL        string    `json:"url"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
}

func listingsResponse(rows []model.PersistedListing) []listingJSON {
	out := make([]listingJSON, 0, len(rows))
	for _, pl := range rows {
		item := listingJSON{
			Portal:     string(pl.Listing.Portal),
			Title:      pl.Listing.Title,
			Price:      pl.Listing.Price,
			PricePerM2: pl.Listing.PricePerM2,
			Location:   pl.Listing.Location,
			URL:        pl.Listing.URL,
			FirstSeen:  pl.FirstSeen,
			LastSeen:   pl.LastSeen,
		}
		if pl.Listing.Area.Known {
			v := pl.Listing.Area.Value
			item.Area = &v
		}
		out = append(out, item)
	}
	return out
}

func init() {
	watchCmd.Flags().IntVar(&watchPort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(watchCmd)
}
