package tiles

import (
	"image"
	"math"
)

const (
	// TileSize is the pixel size of one tile at zoom 0. The whole world
	// projects onto a TileSize x TileSize plane which every zoom level
	// scales by 2^zoom.
	TileSize = 256

	// maxSin bounds the Mercator sine term. The projection diverges as
	// sin(lat) approaches ±1, so latitudes near the poles are clamped
	// instead of producing NaN/Inf.
	maxSin = 0.9999
)

// FallbackScreenSize is used before the first layout pass has measured the
// real render surface.
var FallbackScreenSize = image.Pt(800, 600)

// Tile addresses one raster tile in the XYZ scheme.
type Tile struct {
	X, Y, Z int
}

// LatLng is a geographical point in degrees.
type LatLng struct {
	Lat, Lng float64
}

// LonToX maps longitude in [-180,180] linearly onto [0,TileSize].
func LonToX(lon float64) float64 {
	return (lon + 180) / 360 * TileSize
}

// LatToY applies the Web-Mercator transform onto [0,TileSize]. Total over
// all latitudes: the sine term is clamped so inputs at the poles still
// return a finite value.
func LatToY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	sin = math.Min(math.Max(sin, -maxSin), maxSin)
	return (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * TileSize
}

// WorldPos returns the world-pixel coordinate of a point at the given zoom.
// Zoom may be fractional; tiles, markers and the user dot all share this
// single scaling law.
func WorldPos(ll LatLng, zoom float64) (x, y float64) {
	scale := math.Pow(2, zoom)
	return LonToX(ll.Lng) * scale, LatToY(ll.Lat) * scale
}

// WorldToLatLng inverts WorldPos. Latitudes beyond the clamped Mercator
// band come back saturated, matching the forward clamp.
func WorldToLatLng(x, y float64, zoom float64) LatLng {
	scale := math.Pow(2, zoom)
	lng := x/(TileSize*scale)*360 - 180
	lat := math.Asin(math.Tanh((0.5-y/(TileSize*scale))*2*math.Pi)) * 180 / math.Pi
	return LatLng{Lat: lat, Lng: lng}
}

// TileAt returns the tile address directly under a point. Tiles always live
// at the integer level floor(zoom).
func TileAt(ll LatLng, zoom float64) Tile {
	base := math.Floor(zoom)
	x, y := WorldPos(ll, base)
	return Tile{
		X: int(math.Floor(x / TileSize)),
		Y: int(math.Floor(y / TileSize)),
		Z: int(base),
	}
}

// ScreenOrFallback substitutes the fixed fallback size when the render
// surface has not been measured yet.
func ScreenOrFallback(screen image.Point) image.Point {
	if screen.X <= 0 || screen.Y <= 0 {
		return FallbackScreenSize
	}
	return screen
}

// ScaleDiff is the factor between the fractional zoom and its base integer
// level. Raster tiles are fetched at the base level and scaled by this on
// screen; refetching per fractional step would be wasteful.
func ScaleDiff(zoom float64) float64 {
	return math.Pow(2, zoom-math.Floor(zoom))
}

// VisibleTiles enumerates the tile addresses covering the viewport at
// floor(zoom). The visible window is the screen extent divided by the
// fractional scale factor, so the tile set does not jump when the zoom
// crosses an integer boundary.
//
// X and Y are not wrapped modulo 2^z: panning past the antimeridian yields
// out-of-range addresses that the tile source rejects, leaving a gap.
func VisibleTiles(center LatLng, zoom float64, screen image.Point) []Tile {
	screen = ScreenOrFallback(screen)
	base := int(math.Floor(zoom))
	cx, cy := WorldPos(center, float64(base))

	diff := ScaleDiff(zoom)
	halfW := float64(screen.X) / diff / 2
	halfH := float64(screen.Y) / diff / 2

	minX := int(math.Floor((cx - halfW) / TileSize))
	maxX := int(math.Floor((cx + halfW) / TileSize))
	minY := int(math.Floor((cy - halfH) / TileSize))
	maxY := int(math.Floor((cy + halfH) / TileSize))

	visible := make([]Tile, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			visible = append(visible, Tile{X: x, Y: y, Z: base})
		}
	}
	return visible
}

// ScreenPos returns the on-screen position of a tile's top-left corner for
// the given viewport, along with the factor its raster must be scaled by.
func ScreenPos(t Tile, center LatLng, zoom float64, screen image.Point) (x, y, scale float64) {
	screen = ScreenOrFallback(screen)
	cx, cy := WorldPos(center, float64(t.Z))
	diff := ScaleDiff(zoom)
	x = (float64(t.X)*TileSize-cx)*diff + float64(screen.X)/2
	y = (float64(t.Y)*TileSize-cy)*diff + float64(screen.Y)/2
	return x, y, diff
}
