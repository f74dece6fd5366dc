package mapview

// Layer fixes the stacking order of everything drawn above the tile raster.
// Draw order follows the numeric order, so a higher layer always wins; the
// selected marker sits above everything else. This replaces per-call-site
// numeric z-indexes.
type Layer int

const (
	LayerTiles Layer = iota
	LayerMarkers
	LayerGroupMarkers
	LayerUserLocation
	LayerSelectedMarker
)
