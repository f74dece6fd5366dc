// Package mapview implements the interactive slippy-map widget: viewport
// state, pointer-drag panning, wheel zoom, tile layout and marker
// projection. It consumes place records and emits selection and locate-me
// callbacks; it never fetches place data itself.
package mapview

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"strconv"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"companion/internal/model"
	"companion/tiles"
	"companion/tiles/worker"
)

var (
	backgroundColor  = color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
	markerPlain      = color.NRGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xff}
	markerWithGroups = color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	markerSelected   = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}
	userDotColor     = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}
	white            = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

type MapView struct {
	TileManager *tiles.TileManager
	Viewport    *Viewport
	Pool        *worker.Pool
	Theme       *material.Theme
	Log         *slog.Logger

	// Inputs, owned by the caller.
	Places       []model.Place
	SelectedID   string
	UserLocation *tiles.LatLng

	// Callbacks raised from input handling.
	OnSelectPlace func(model.Place)
	OnLocate      func()

	size         image.Point
	visibleTiles []tiles.Tile
	markers      []marker
	markerStates map[string]*markerState
	pending      map[string]bool

	locateBtn  widget.Clickable
	zoomInBtn  widget.Clickable
	zoomOutBtn widget.Clickable
}

func New(tm *tiles.TileManager, pool *worker.Pool, th *material.Theme, log *slog.Logger) *MapView {
	if log == nil {
		log = slog.Default()
	}
	return &MapView{
		TileManager:  tm,
		Viewport:     NewViewport(),
		Pool:         pool,
		Theme:        th,
		Log:          log,
		markerStates: make(map[string]*markerState),
		pending:      make(map[string]bool),
	}
}

// SetPlaces replaces the marker inputs and drops gesture state for places
// that disappeared.
func (mv *MapView) SetPlaces(places []model.Place) {
	mv.Places = places
	keep := make(map[string]bool, len(places))
	for i := range places {
		keep[places[i].ID] = true
	}
	for id := range mv.markerStates {
		if !keep[id] {
			delete(mv.markerStates, id)
		}
	}
}

func (mv *MapView) Layout(gtx layout.Context) layout.Dimensions {
	tag := mv
	viewportChanged := false

	// Pointer events on the map surface drive the Idle/Dragging machine
	// and the wheel zoom.
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  tag,
			Kinds:   pointer.Scroll | pointer.Drag | pointer.Press | pointer.Release | pointer.Cancel,
			ScrollY: pointer.ScrollRange{Min: -500, Max: 500},
		})
		if !ok {
			break
		}
		x, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch x.Kind {
		case pointer.Press:
			mv.Viewport.StartDrag(x.Position)
		case pointer.Drag:
			if mv.Viewport.Dragging() {
				mv.Viewport.DragTo(x.Position)
				viewportChanged = true
			}
		case pointer.Scroll:
			mv.Viewport.ApplyWheel(float64(x.Scroll.Y))
			viewportChanged = true
		case pointer.Release, pointer.Cancel:
			mv.Viewport.EndDrag()
		}
	}

	// Marker taps from the previous frame's hit areas.
	for i := range mv.markers {
		m := mv.markers[i]
		for {
			e, ok := m.state.click.Update(gtx.Source)
			if !ok {
				break
			}
			if e.Kind == gesture.KindClick {
				mv.SelectedID = m.place.ID
				if mv.OnSelectPlace != nil {
					mv.OnSelectPlace(*m.place)
				}
			}
		}
	}

	if mv.zoomInBtn.Clicked(gtx) {
		mv.Viewport.ZoomIn()
		viewportChanged = true
	}
	if mv.zoomOutBtn.Clicked(gtx) {
		mv.Viewport.ZoomOut()
		viewportChanged = true
	}
	if mv.locateBtn.Clicked(gtx) && mv.OnLocate != nil {
		mv.OnLocate()
	}

	if mv.size != gtx.Constraints.Max {
		mv.size = gtx.Constraints.Max
		viewportChanged = true
	}
	if viewportChanged || mv.visibleTiles == nil {
		mv.updateVisibleTiles()
	}

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, tag)

	paint.FillShape(gtx.Ops, backgroundColor, clip.Rect{Max: gtx.Constraints.Max}.Op())

	mv.layoutTiles(gtx)
	mv.layoutMarkers(gtx)
	mv.layoutControls(gtx)

	return layout.Dimensions{Size: gtx.Constraints.Max}
}

// layoutTiles draws every cached visible tile at its screen position,
// scaled from the base integer zoom to the fractional zoom. Tiles still in
// flight leave a gap until their load callback invalidates the frame.
func (mv *MapView) layoutTiles(gtx layout.Context) {
	vp := mv.Viewport
	for _, tile := range mv.visibleTiles {
		key := tiles.GetTileKey(tile)
		cached, ok := mv.TileManager.GetCache().Get(key)
		if !ok {
			continue
		}
		delete(mv.pending, key)
		var imageOp paint.ImageOp
		switch v := cached.(type) {
		case paint.ImageOp:
			imageOp = v
		case image.Image:
			imageOp = paint.NewImageOp(v)
		default:
			continue
		}

		x, y, scale := tiles.ScreenPos(tile, vp.Center, vp.Zoom, mv.size)
		trans := op.Affine(f32.Affine2D{}.
			Scale(f32.Point{}, f32.Pt(float32(scale), float32(scale))).
			Offset(f32.Pt(float32(x), float32(y)))).Push(gtx.Ops)
		imageOp.Add(gtx.Ops)
		paint.PaintOp{}.Add(gtx.Ops)
		trans.Pop()
	}
}

func (mv *MapView) layoutMarkers(gtx layout.Context) {
	vp := mv.Viewport
	mv.markers = projectMarkers(mv.Places, mv.SelectedID, vp.Center, vp.Zoom, mv.size, mv.markerStates)

	i := 0
	for ; i < len(mv.markers) && mv.markers[i].layer < LayerUserLocation; i++ {
		mv.drawMarker(gtx, mv.markers[i])
	}
	if mv.UserLocation != nil {
		mv.drawUserDot(gtx, ProjectPoint(*mv.UserLocation, vp.Center, vp.Zoom, mv.size))
	}
	for ; i < len(mv.markers); i++ {
		mv.drawMarker(gtx, mv.markers[i])
	}
}

// drawMarker paints a pin anchored above its geographic point and registers
// the tap area for the next frame.
func (mv *MapView) drawMarker(gtx layout.Context, m marker) {
	radius := 9
	if m.layer == LayerSelectedMarker {
		radius = 11
	}
	fill := markerPlain
	switch m.layer {
	case LayerSelectedMarker:
		fill = markerSelected
	case LayerGroupMarkers:
		fill = markerWithGroups
	}

	px, py := int(m.pos.X), int(m.pos.Y)
	cx, cy := px, py-radius-4

	// Stem from the point up to the head.
	stem := clip.Rect{Min: image.Pt(px-1, cy), Max: image.Pt(px+1, py)}.Op()
	paint.FillShape(gtx.Ops, fill, stem)

	head := image.Rect(cx-radius, cy-radius, cx+radius, cy+radius)
	paint.FillShape(gtx.Ops, fill, clip.Ellipse(head).Op(gtx.Ops))
	inner := image.Rect(cx-radius/3, cy-radius/3, cx+radius/3, cy+radius/3)
	paint.FillShape(gtx.Ops, white, clip.Ellipse(inner).Op(gtx.Ops))

	if m.place.HasGroups() {
		mv.drawGroupBadge(gtx, image.Pt(cx+radius-3, cy-radius+1), m.place.GroupCount())
	}

	hit := image.Rect(px-radius-3, cy-radius-3, px+radius+3, py+2)
	area := clip.Rect(hit).Push(gtx.Ops)
	m.state.click.Add(gtx.Ops)
	area.Pop()
}

func (mv *MapView) drawGroupBadge(gtx layout.Context, at image.Point, count int) {
	const r = 7
	ring := image.Rect(at.X-r-1, at.Y-r-1, at.X+r+1, at.Y+r+1)
	paint.FillShape(gtx.Ops, white, clip.Ellipse(ring).Op(gtx.Ops))
	badge := image.Rect(at.X-r, at.Y-r, at.X+r, at.Y+r)
	paint.FillShape(gtx.Ops, markerWithGroups, clip.Ellipse(badge).Op(gtx.Ops))

	label := material.Label(mv.Theme, unit.Sp(10), strconv.Itoa(count))
	label.Color = white
	trans := op.Offset(image.Pt(at.X-3, at.Y-7)).Push(gtx.Ops)
	label.Layout(gtx)
	trans.Pop()
}

func (mv *MapView) drawUserDot(gtx layout.Context, pos f32.Point) {
	const r = 8
	cx, cy := int(pos.X), int(pos.Y)
	ring := image.Rect(cx-r-2, cy-r-2, cx+r+2, cy+r+2)
	paint.FillShape(gtx.Ops, white, clip.Ellipse(ring).Op(gtx.Ops))
	dot := image.Rect(cx-r, cy-r, cx+r, cy+r)
	paint.FillShape(gtx.Ops, userDotColor, clip.Ellipse(dot).Op(gtx.Ops))
}

func (mv *MapView) layoutControls(gtx layout.Context) {
	layout.SE.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical, Spacing: layout.SpaceEnd}.Layout(gtx,
				layout.Rigid(material.Button(mv.Theme, &mv.locateBtn, "◎").Layout),
				layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
				layout.Rigid(material.Button(mv.Theme, &mv.zoomInBtn, "+").Layout),
				layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
				layout.Rigid(material.Button(mv.Theme, &mv.zoomOutBtn, "−").Layout),
			)
		})
	})
}

// updateVisibleTiles recomputes the tile set for the current viewport and
// queues background fetches for tiles not yet cached. Loads are
// fire-and-forget: a failed tile simply stays absent.
func (mv *MapView) updateVisibleTiles() {
	vp := mv.Viewport
	mv.visibleTiles = tiles.VisibleTiles(vp.Center, vp.Zoom, mv.size)

	for _, tile := range mv.visibleTiles {
		key := tiles.GetTileKey(tile)
		if _, ok := mv.TileManager.GetCache().Get(key); ok {
			continue
		}
		if mv.pending[key] {
			continue
		}
		mv.pending[key] = true
		t := tile
		if mv.Pool != nil {
			mv.Pool.Submit(worker.Task{
				Ctx:  context.Background(),
				Work: func() error { _, err := mv.TileManager.GetTile(t); return err },
			})
		} else {
			go mv.TileManager.GetTile(t)
		}
	}
}
