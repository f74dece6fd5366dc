package geolocate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion/tiles"
)

func TestFixedLocator(t *testing.T) {
	l := FixedLocator{Position: tiles.LatLng{Lat: 48.1372, Lng: 11.5755}}
	fix, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48.1372, fix.Lat)
}

func TestIPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":48.15,"lon":11.58}`))
	}))
	defer srv.Close()

	l := NewIPLocator(srv.URL)
	fix, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48.15, fix.Lat)
	assert.Equal(t, 11.58, fix.Lng)
}

func TestIPLocatorFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	l := NewIPLocator(srv.URL)
	_, err := l.Locate(context.Background())
	assert.Error(t, err)
}

func TestIPLocatorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	l := NewIPLocator(srv.URL)
	_, err := l.Locate(context.Background())
	assert.Error(t, err)
}
