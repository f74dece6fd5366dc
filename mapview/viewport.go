package mapview

import (
	"math"

	"gioui.org/f32"

	"companion/tiles"
)

// Centers further poleward than this would pin the Mercator projection
// against its clamp; keep the viewport inside the projectable band.
const maxCenterLat = 85.0511

// Defaults match the original deployment: Munich city center at street
// level, zoomable between district and building scale.
var DefaultCenter = tiles.LatLng{Lat: 48.1372, Lng: 11.5755}

const (
	DefaultZoom      = 14.0
	DefaultMinZoom   = 10.0
	DefaultMaxZoom   = 18.0
	LocateZoom       = 15.0
	DefaultWheelSens = 0.001

	// DefaultDragLatFactor roughly compensates Mercator distortion when
	// converting a vertical drag into a latitude delta. It is a known
	// simplification: the proper factor depends on the latitude. Kept
	// configurable so correcting it is a config change, not a code edit.
	DefaultDragLatFactor = 0.5
)

// Viewport holds the map camera: a geographic center and a fractional zoom.
// It is mutated in place by every gesture and never persisted.
type Viewport struct {
	Center tiles.LatLng
	Zoom   float64

	MinZoom       float64
	MaxZoom       float64
	WheelSens     float64
	DragLatFactor float64

	drag dragState
}

// dragState is the Idle/Dragging machine. A drag records the pointer and
// center at its start; every move recomputes the center from those anchors
// so intermediate moves cannot accumulate rounding drift.
type dragState struct {
	active      bool
	startPos    f32.Point
	startCenter tiles.LatLng
}

func NewViewport() *Viewport {
	return &Viewport{
		Center:        DefaultCenter,
		Zoom:          DefaultZoom,
		MinZoom:       DefaultMinZoom,
		MaxZoom:       DefaultMaxZoom,
		WheelSens:     DefaultWheelSens,
		DragLatFactor: DefaultDragLatFactor,
	}
}

func (v *Viewport) clampZoom(z float64) float64 {
	return math.Min(math.Max(z, v.MinZoom), v.MaxZoom)
}

func clampLat(lat float64) float64 {
	return math.Min(math.Max(lat, -maxCenterLat), maxCenterLat)
}

// SetZoom sets the zoom, clamped to the configured range. The center is
// never touched by zoom changes.
func (v *Viewport) SetZoom(z float64) {
	v.Zoom = v.clampZoom(z)
}

// ZoomIn and ZoomOut are the explicit ±1 controls.
func (v *Viewport) ZoomIn()  { v.SetZoom(v.Zoom + 1) }
func (v *Viewport) ZoomOut() { v.SetZoom(v.Zoom - 1) }

// ApplyWheel adjusts the fractional zoom from a wheel delta.
func (v *Viewport) ApplyWheel(deltaY float64) {
	v.SetZoom(v.Zoom - deltaY*v.WheelSens)
}

// Recenter moves the camera, as used by the locate-me flow.
func (v *Viewport) Recenter(ll tiles.LatLng, zoom float64) {
	v.Center = tiles.LatLng{Lat: clampLat(ll.Lat), Lng: ll.Lng}
	v.SetZoom(zoom)
}

// Reset returns to the fixed default view.
func (v *Viewport) Reset() {
	v.Center = DefaultCenter
	v.SetZoom(DefaultZoom)
}

// StartDrag transitions Idle -> Dragging, anchoring the gesture.
func (v *Viewport) StartDrag(pos f32.Point) {
	v.drag = dragState{active: true, startPos: pos, startCenter: v.Center}
}

// DragTo recomputes the center from the total screen delta since the drag
// started, inverting the world-pixel scaling law. Runs on every pointer
// move, with no frame throttling.
func (v *Viewport) DragTo(pos f32.Point) {
	if !v.drag.active {
		return
	}
	dx := float64(pos.X - v.drag.startPos.X)
	dy := float64(pos.Y - v.drag.startPos.Y)

	scale := math.Pow(2, v.Zoom)
	deltaLon := -(dx / scale) * (360.0 / tiles.TileSize)
	deltaLat := (dy / scale) * (360.0 / tiles.TileSize) * v.DragLatFactor

	v.Center = tiles.LatLng{
		Lat: clampLat(v.drag.startCenter.Lat + deltaLat),
		Lng: v.drag.startCenter.Lng + deltaLon,
	}
}

// EndDrag transitions Dragging -> Idle. Safe to call when already idle
// (pointer leaving the surface reports both release and cancel).
func (v *Viewport) EndDrag() {
	v.drag.active = false
}

// Dragging reports whether a drag gesture is in progress.
func (v *Viewport) Dragging() bool {
	return v.drag.active
}
