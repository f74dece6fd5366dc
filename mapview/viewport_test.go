package mapview

import (
	"testing"

	"gioui.org/f32"
	"github.com/stretchr/testify/assert"

	"companion/tiles"
)

func TestViewportDefaults(t *testing.T) {
	vp := NewViewport()
	assert.Equal(t, tiles.LatLng{Lat: 48.1372, Lng: 11.5755}, vp.Center)
	assert.Equal(t, 14.0, vp.Zoom)
}

func TestZoomClampPinsAtLimits(t *testing.T) {
	vp := NewViewport()

	for i := 0; i < 20; i++ {
		vp.ZoomIn()
	}
	assert.Equal(t, vp.MaxZoom, vp.Zoom)

	for i := 0; i < 20; i++ {
		vp.ZoomOut()
	}
	assert.Equal(t, vp.MinZoom, vp.Zoom)
}

func TestWheelZoomIsFractionalAndClamped(t *testing.T) {
	vp := NewViewport()
	center := vp.Center

	vp.ApplyWheel(-100) // wheel up zooms in
	assert.InDelta(t, 14.1, vp.Zoom, 1e-9)
	vp.ApplyWheel(100)
	assert.InDelta(t, 14.0, vp.Zoom, 1e-9)

	vp.ApplyWheel(-1e6)
	assert.Equal(t, vp.MaxZoom, vp.Zoom)
	vp.ApplyWheel(1e6)
	assert.Equal(t, vp.MinZoom, vp.Zoom)

	// Zoom never moves the center.
	assert.Equal(t, center, vp.Center)
}

func TestDragMovesCenterAgainstPointer(t *testing.T) {
	vp := NewViewport()
	start := vp.Center

	vp.StartDrag(f32.Pt(100, 100))
	vp.DragTo(f32.Pt(150, 100)) // drag east
	vp.EndDrag()

	// Dragging the map east moves the viewed region west.
	assert.Less(t, vp.Center.Lng, start.Lng)
	assert.Equal(t, start.Lat, vp.Center.Lat)
}

func TestDragInvariance(t *testing.T) {
	vp := NewViewport()
	start := vp.Center

	vp.StartDrag(f32.Pt(400, 300))
	vp.DragTo(f32.Pt(470, 240))
	vp.EndDrag()

	vp.StartDrag(f32.Pt(470, 240))
	vp.DragTo(f32.Pt(400, 300))
	vp.EndDrag()

	assert.InDelta(t, start.Lat, vp.Center.Lat, 1e-9)
	assert.InDelta(t, start.Lng, vp.Center.Lng, 1e-9)
}

func TestDragUsesAnchorsNotIncrements(t *testing.T) {
	// Many intermediate moves must land exactly where one big move does,
	// since each recomputation starts from the drag anchors.
	a, b := NewViewport(), NewViewport()

	a.StartDrag(f32.Pt(0, 0))
	for i := 1; i <= 60; i++ {
		a.DragTo(f32.Pt(float32(i), float32(i)))
	}
	a.EndDrag()

	b.StartDrag(f32.Pt(0, 0))
	b.DragTo(f32.Pt(60, 60))
	b.EndDrag()

	assert.Equal(t, b.Center, a.Center)
}

func TestDragLatFactorConfigurable(t *testing.T) {
	half, full := NewViewport(), NewViewport()
	full.DragLatFactor = 1.0

	half.StartDrag(f32.Pt(0, 0))
	half.DragTo(f32.Pt(0, 80))
	full.StartDrag(f32.Pt(0, 0))
	full.DragTo(f32.Pt(0, 80))

	halfDelta := half.Center.Lat - DefaultCenter.Lat
	fullDelta := full.Center.Lat - DefaultCenter.Lat
	assert.InDelta(t, fullDelta/2, halfDelta, 1e-12)
}

func TestDragToWithoutStartIsIgnored(t *testing.T) {
	vp := NewViewport()
	center := vp.Center
	vp.DragTo(f32.Pt(500, 500))
	assert.Equal(t, center, vp.Center)
	assert.False(t, vp.Dragging())
}

func TestRecenterClampsLatitude(t *testing.T) {
	vp := NewViewport()
	vp.Recenter(tiles.LatLng{Lat: 89.9, Lng: 11.0}, LocateZoom)
	assert.InDelta(t, 85.0511, vp.Center.Lat, 1e-6)
	assert.Equal(t, 15.0, vp.Zoom)

	vp.Recenter(tiles.LatLng{Lat: 48.0, Lng: 11.5}, 99)
	assert.Equal(t, vp.MaxZoom, vp.Zoom)
}

func TestReset(t *testing.T) {
	vp := NewViewport()
	vp.Recenter(tiles.LatLng{Lat: 40, Lng: 7}, 12)
	vp.Reset()
	assert.Equal(t, DefaultCenter, vp.Center)
	assert.Equal(t, DefaultZoom, vp.Zoom)
}
