// Package geolocate resolves the user's position for the locate-me action.
// Fixes are one-shot requests; the result feeds the same synchronous
// viewport update path as pointer input.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"companion/tiles"
)

// Locator produces a single location fix. Implementations must respect the
// context; the UI fires these from a goroutine per request.
type Locator interface {
	Locate(ctx context.Context) (tiles.LatLng, error)
}

// FixedLocator always returns a configured position. Used when the
// deployment knows where the kiosk/device is, and in tests.
type FixedLocator struct {
	Position tiles.LatLng
}

func (f FixedLocator) Locate(ctx context.Context) (tiles.LatLng, error) {
	return f.Position, nil
}

// DefaultIPEndpoint answers {"status":"success","lat":..,"lon":..}.
const DefaultIPEndpoint = "http://ip-api.com/json/"

// IPLocator resolves a coarse fix from the device's public IP.
type IPLocator struct {
	Endpoint string
	client   *http.Client
}

func NewIPLocator(endpoint string) *IPLocator {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	return &IPLocator{
		Endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (l *IPLocator) Locate(ctx context.Context) (tiles.LatLng, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Endpoint, nil)
	if err != nil {
		return tiles.LatLng{}, fmt.Errorf("creating locate request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return tiles.LatLng{}, fmt.Errorf("ip geolocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tiles.LatLng{}, fmt.Errorf("ip geolocation: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return tiles.LatLng{}, fmt.Errorf("decoding ip geolocation response: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return tiles.LatLng{}, fmt.Errorf("ip geolocation failed: %s", body.Status)
	}

	return tiles.LatLng{Lat: body.Lat, Lng: body.Lon}, nil
}
