package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalkowiak/flatwatch/internal/dashboard"
	"github.com/mwalkowiak/flatwatch/internal/model"
	"github.com/mwalkowiak/flatwatch/internal/notify"
	"github.com/mwalkowiak/flatwatch/internal/portal"
	"github.com/mwalkowiak/flatwatch/internal/reconcile"
	"github.com/mwalkowiak/flatwatch/internal/store"
)

type stubPortal struct {
	name     model.Portal
	listings []model.Listing
	err      error
	calls    int
}

func (s *stubPortal) Name() model.Portal { return s.name }
func (s *stubPortal) Origin() string     { return "https://" + string(s.name) + ".pl" }

func (s *stubPortal) Fetch(_ context.Context, _ *portal.Client, _ model.Criteria) ([]model.Listing, error) {
	s.calls++
	return s.listings, s.err
}

type recordingNotifier struct {
	name string
	got  []model.Listing
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) NotifyNew(_ context.Context, listings []model.Listing) error {
	r.got = append(r.got, listings...)
	return nil
}

func listing(p model.Portal, title string, price int64, url string) model.Listing {
	return model.Listing{
		Portal:   p,
		Title:    title,
		Price:    price,
		Area:     model.KnownArea(50),
		Location: "Wrocław",
		URL:      url,
	}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func newRunner(t *testing.T, st store.Store, reg *portal.Registry, names []string, d *notify.Dispatcher, r *dashboard.Renderer) *Runner {
	t.Helper()
	return New(Options{
		Registry:       reg,
		Store:          st,
		Engine:         reconcile.NewEngine(st, model.Criteria{}),
		Dispatcher:     d,
		Renderer:       r,
		Portals:        names,
		DashboardLimit: 50,
	})
}

func TestRun_FullCycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	reg := portal.NewRegistry()
	reg.Register(&stubPortal{name: model.PortalOtodom, listings: []model.Listing{
		listing(model.PortalOtodom, "Mieszkanie A", 420000, "https://www.otodom.pl/a"),
	}})
	reg.Register(&stubPortal{name: model.PortalOLX, listings: []model.Listing{
		listing(model.PortalOLX, "Mieszkanie B", 380000, "https://www.olx.pl/b"),
	}})

	ch := &recordingNotifier{name: "telegram"}
	dashPath := filepath.Join(t.TempDir(), "dashboard.html")
	renderer, err := dashboard.NewRenderer(dashPath)
	require.NoError(t, err)

	runner := newRunner(t, st, reg, nil, notify.NewDispatcher(false, ch), renderer)

	scan, err := runner.Run(ctx, model.Criteria{})
	require.NoError(t, err)

	assert.Equal(t, 2, scan.Found)
	assert.Equal(t, 2, scan.New)
	assert.Zero(t, scan.Changed)
	assert.Zero(t, scan.Failed)
	assert.Equal(t, "otodom,olx", scan.Portals)
	assert.NotEmpty(t, scan.ID)

	// both listings landed in the store
	counts, err := st.CountByPortal(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.Portal]int{model.PortalOtodom: 1, model.PortalOLX: 1}, counts)

	// channel saw the new listings
	require.Len(t, ch.got, 2)

	// dashboard artifact was refreshed
	raw, err := os.ReadFile(dashPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Mieszkanie A")

	// scan record persisted
	scans, err := st.RecentScans(ctx, 5)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, scan.ID, scans[0].ID)
	assert.Equal(t, 2, scans[0].New)
}

func TestRun_FailingPortalDoesNotBlockOthers(t *testing.T) {
	st := newTestStore(t)

	reg := portal.NewRegistry()
	reg.Register(&stubPortal{name: model.PortalOtodom, err: eris.New("status 503")})
	good := &stubPortal{name: model.PortalOLX, listings: []model.Listing{
		listing(model.PortalOLX, "Mieszkanie B", 380000, "https://www.olx.pl/b"),
	}}
	reg.Register(good)

	runner := newRunner(t, st, reg, nil, nil, nil)

	scan, err := runner.Run(context.Background(), model.Criteria{})
	require.NoError(t, err)

	assert.Equal(t, 1, good.calls)
	assert.Equal(t, 1, scan.New)
	assert.Equal(t, 1, scan.Failed)
}

func TestRun_SecondCycleReportsNothingNew(t *testing.T) {
	st := newTestStore(t)

	reg := portal.NewRegistry()
	reg.Register(&stubPortal{name: model.PortalOtodom, listings: []model.Listing{
		listing(model.PortalOtodom, "Mieszkanie A", 420000, "https://www.otodom.pl/a"),
	}})

	ch := &recordingNotifier{name: "telegram"}
	runner := newRunner(t, st, reg, nil, notify.NewDispatcher(false, ch), nil)

	_, err := runner.Run(context.Background(), model.Criteria{})
	require.NoError(t, err)
	scan, err := runner.Run(context.Background(), model.Criteria{})
	require.NoError(t, err)

	assert.Zero(t, scan.New)
	assert.Equal(t, 1, scan.Found)
	require.Len(t, ch.got, 1, "unchanged listings are not re-announced")
}

func TestRun_SelectsOnlyConfiguredPortals(t *testing.T) {
	st := newTestStore(t)

	reg := portal.NewRegistry()
	skipped := &stubPortal{name: model.PortalOtodom}
	reg.Register(skipped)
	reg.Register(&stubPortal{name: model.PortalOLX})

	runner := newRunner(t, st, reg, []string{"olx"}, nil, nil)

	scan, err := runner.Run(context.Background(), model.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, "olx", scan.Portals)
	assert.Zero(t, skipped.calls)
}

func TestRun_UnknownPortalIsAnError(t *testing.T) {
	st := newTestStore(t)
	runner := newRunner(t, st, portal.NewRegistry(), []string{"nope"}, nil, nil)

	_, err := runner.Run(context.Background(), model.Criteria{})
	assert.Error(t, err)
}
