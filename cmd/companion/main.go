// Companion is a desktop client for the Munich social-discovery backend:
// an interactive map of places with location-bound groups and chat.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"companion/internal/api"
	"companion/internal/chat"
	"companion/internal/config"
	"companion/internal/geolocate"
	"companion/internal/model"
	"companion/internal/session"
	"companion/mapview"
	"companion/tiles"
	"companion/tiles/worker"
)

const geolocateTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Logging.Level)
	slog.SetDefault(log)

	sess, err := session.Load(cfg.Session.Path)
	if err != nil {
		log.Error("loading session", "error", err)
		os.Exit(1)
	}

	client, err := api.NewClient(cfg.API.BaseURL, log)
	if err != nil {
		log.Error("creating api client", "error", err)
		os.Exit(1)
	}

	a := &appState{
		cfg:        cfg,
		log:        log,
		sess:       sess,
		client:     client,
		subscriber: chat.NewSubscriber(cfg.Chat.WSBaseURL, log),
		locator:    newLocator(cfg.Locate),
		updates:    make(chan func(), 16),
		refresh:    make(chan struct{}, 1),
	}

	go a.run()
	app.Main()
}

type appState struct {
	cfg        *config.Config
	log        *slog.Logger
	sess       *session.Session
	client     *api.Client
	subscriber *chat.Subscriber
	locator    geolocate.Locator

	window *app.Window
	mv     *mapview.MapView
	pool   *worker.Pool

	// updates carries results of async work into the frame loop so all
	// state mutation happens on the UI path.
	updates chan func()
	refresh chan struct{}

	chatCancel context.CancelFunc
}

func (a *appState) run() {
	w := new(app.Window)
	w.Option(app.Title("Munich Companion"), app.Size(unit.Dp(1024), unit.Dp(768)))
	a.window = w

	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))

	provider := a.newProvider()
	tm := tiles.NewTileManager(provider, tiles.CacheImage, a.log)
	tm.SetOnLoadCallback(a.invalidate)

	a.pool = worker.NewPool(a.cfg.Tiles.Workers)
	a.mv = mapview.New(tm, a.pool, th, a.log)
	a.configureViewport()
	a.mv.OnSelectPlace = a.onSelectPlace
	a.mv.OnLocate = a.onLocate

	go func() {
		for range a.refresh {
			w.Invalidate()
		}
	}()

	go a.bootstrap()

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			a.shutdown()
			os.Exit(0)
		case app.FrameEvent:
			a.drainUpdates()
			gtx := app.NewContext(&ops, e)
			a.mv.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (a *appState) newProvider() tiles.TileProvider {
	osm := tiles.NewOSMTileProvider(a.cfg.Tiles.URLTemplate, a.log)
	switch a.cfg.Tiles.Provider {
	case "placeholder":
		return tiles.NewPlaceholderTileProvider()
	case "combined":
		combined := tiles.NewCombinedTileProvider(osm, tiles.NewPlaceholderTileProvider())
		combined.SetOnLoadCallback(a.invalidate)
		return combined
	default:
		return osm
	}
}

func (a *appState) configureViewport() {
	vp := a.mv.Viewport
	vp.Center = tiles.LatLng{Lat: a.cfg.Map.CenterLat, Lng: a.cfg.Map.CenterLng}
	vp.Zoom = a.cfg.Map.Zoom
	vp.MinZoom = a.cfg.Map.MinZoom
	vp.MaxZoom = a.cfg.Map.MaxZoom
	vp.WheelSens = a.cfg.Map.WheelSensitivity
	vp.DragLatFactor = a.cfg.Map.DragLatFactor
}

// bootstrap registers the session user once and loads the initial places
// around the configured center.
func (a *appState) bootstrap() {
	ctx := context.Background()

	if !a.sess.Registered {
		if resp, err := a.client.RegisterUser(ctx, a.sess.User); err != nil {
			// Registration conflicts with an existing user are fine.
			a.log.Warn("user registration", "error", err)
		} else {
			a.log.Info("user registered", "name", resp.User.Name)
			a.post(func() { a.sess.Registered = true })
		}
	}

	a.loadPlaces(a.cfg.Map.CenterLat, a.cfg.Map.CenterLng)
}

func (a *appState) loadPlaces(lat, lng float64) {
	places, err := a.client.NearbyPlaces(context.Background(), lat, lng, a.cfg.API.Mood, a.cfg.API.Radius)
	if err != nil {
		a.log.Warn("loading nearby places", "error", err)
		return
	}
	a.post(func() {
		a.mv.SetPlaces(places)
		a.log.Info("places loaded", "count", len(places))
	})
}

func (a *appState) onSelectPlace(p model.Place) {
	a.log.Info("place selected", "id", p.ID, "name", p.Name, "groups", p.GroupCount())
	go a.refreshGroups(p)
}

// refreshGroups re-reads the groups at the selected place and attaches a
// live chat subscription to the first one.
func (a *appState) refreshGroups(p model.Place) {
	groups, err := a.client.GroupsAtLocation(context.Background(), p.ID)
	if err != nil {
		a.log.Warn("loading groups", "place", p.ID, "error", err)
		return
	}

	a.post(func() {
		for i := range a.mv.Places {
			if a.mv.Places[i].ID == p.ID {
				a.mv.Places[i].Groups = groups
			}
		}
		a.resubscribe(groups)
	})
}

func (a *appState) resubscribe(groups []model.Group) {
	if a.chatCancel != nil {
		a.chatCancel()
		a.chatCancel = nil
	}
	if len(groups) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.chatCancel = cancel

	group := groups[0]
	go func() {
		messages, err := a.subscriber.Subscribe(ctx, group.ID)
		if err != nil {
			a.log.Warn("chat subscription", "group", group.ID, "error", err)
			return
		}
		for msg := range messages {
			a.log.Info("chat message", "group", group.ID, "from", msg.SenderName, "content", msg.Content)
		}
	}()
}

func (a *appState) onLocate() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), geolocateTimeout)
		defer cancel()

		fix, err := a.locator.Locate(ctx)
		if err != nil {
			a.log.Warn("locate-me failed", "error", err)
			return
		}
		a.post(func() {
			a.mv.UserLocation = &fix
			a.mv.Viewport.Recenter(fix, mapview.LocateZoom)
		})
		a.loadPlaces(fix.Lat, fix.Lng)
	}()
}

// post schedules fn on the frame loop and wakes the window.
func (a *appState) post(fn func()) {
	a.updates <- fn
	a.invalidate()
}

func (a *appState) drainUpdates() {
	for {
		select {
		case fn := <-a.updates:
			fn()
		default:
			return
		}
	}
}

func (a *appState) invalidate() {
	select {
	case a.refresh <- struct{}{}:
	default:
	}
}

func (a *appState) shutdown() {
	if a.chatCancel != nil {
		a.chatCancel()
	}
	a.pool.Shutdown()
	if err := a.sess.Save(a.cfg.Session.Path); err != nil {
		a.log.Warn("saving session", "error", err)
	}
}

func newLocator(cfg config.LocateConfig) geolocate.Locator {
	if cfg.Mode == "fixed" {
		return geolocate.FixedLocator{Position: tiles.LatLng{Lat: cfg.Lat, Lng: cfg.Lng}}
	}
	return geolocate.NewIPLocator(cfg.Endpoint)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
