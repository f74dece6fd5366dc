package tiles

import (
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTileURL is the standard OSM raster endpoint in the de-facto XYZ
// scheme. Any server following {server}/{z}/{x}/{y}.png can be substituted.
const DefaultTileURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// OSMTileProvider fetches raster tiles over HTTP from an XYZ tile server.
type OSMTileProvider struct {
	urlTemplate string
	client      *http.Client
	userAgent   string
	log         *slog.Logger
}

func NewOSMTileProvider(urlTemplate string, log *slog.Logger) *OSMTileProvider {
	if urlTemplate == "" {
		urlTemplate = DefaultTileURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &OSMTileProvider{
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: 15 * time.Second},
		userAgent:   "companion/1.0 (+https://github.com/muc-connect/companion)",
		log:         log,
	}
}

// GetTileURL expands the {z}/{x}/{y} template for a tile.
func (p *OSMTileProvider) GetTileURL(tile Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Z),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
	)
	return r.Replace(p.urlTemplate)
}

func (p *OSMTileProvider) GetTile(tile Tile) (image.Image, error) {
	url := p.GetTileURL(tile)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating tile request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "image/png,image/webp,*/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tile %s: %w", GetTileKey(tile), err)
	}
	defer resp.Body.Close()

	// Out-of-range addresses are not validated client-side; the server
	// answering 4xx is the expected failure mode and leaves a gap.
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %s: unexpected status %d", GetTileKey(tile), resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding tile %s: %w", GetTileKey(tile), err)
	}

	p.log.Debug("tile loaded", "tile", GetTileKey(tile))
	return img, nil
}
