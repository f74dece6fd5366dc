package mapview

import (
	"image"
	"sort"

	"gioui.org/f32"
	"gioui.org/gesture"

	"companion/internal/model"
	"companion/tiles"
)

// ProjectPoint maps a geographic point to its screen position for the given
// viewport. Markers use the exact fractional zoom, unlike the tile raster
// which stays at floor(zoom): markers then track the cursor smoothly during
// continuous zoom while tiles only change at integer levels.
func ProjectPoint(ll tiles.LatLng, center tiles.LatLng, zoom float64, screen image.Point) f32.Point {
	screen = tiles.ScreenOrFallback(screen)
	wx, wy := tiles.WorldPos(ll, zoom)
	cx, cy := tiles.WorldPos(center, zoom)
	return f32.Pt(
		float32(wx-cx)+float32(screen.X)/2,
		float32(wy-cy)+float32(screen.Y)/2,
	)
}

// marker is one projected place together with its stacking layer. The
// gesture lives on markerState so its identity survives across frames.
type marker struct {
	place *model.Place
	pos   f32.Point
	layer Layer
	state *markerState
}

type markerState struct {
	click gesture.Click
}

// markerLayer picks the stacking layer: selected above everything, places
// with groups above plain ones.
func markerLayer(p *model.Place, selectedID string) Layer {
	switch {
	case p.ID == selectedID:
		return LayerSelectedMarker
	case p.HasGroups():
		return LayerGroupMarkers
	default:
		return LayerMarkers
	}
}

// projectMarkers projects all places and orders them by layer so drawing in
// slice order realizes the stacking invariant. Places were already filtered
// for valid geometry at decode time; the guard here keeps a zero point from
// a manually constructed Place off the map edge cases.
func projectMarkers(places []model.Place, selectedID string, center tiles.LatLng, zoom float64, screen image.Point, states map[string]*markerState) []marker {
	markers := make([]marker, 0, len(places))
	for i := range places {
		p := &places[i]
		if p.ID == "" {
			continue
		}
		st, ok := states[p.ID]
		if !ok {
			st = &markerState{}
			states[p.ID] = st
		}
		markers = append(markers, marker{
			place: p,
			pos:   ProjectPoint(tiles.LatLng{Lat: p.Lat(), Lng: p.Lon()}, center, zoom, screen),
			layer: markerLayer(p, selectedID),
			state: st,
		})
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].layer < markers[j].layer })
	return markers
}
