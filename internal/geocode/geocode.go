// Package geocode resolves a tree's coordinates to a "City, ST" locality
// string via the Google Maps reverse-geocoding API.
package geocode

import (
	"context"
	"errors"
	"regexp"

	"googlemaps.github.io/maps"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/internal/geo"
)

// Geocoder resolves a point to a locality string.
type Geocoder interface {
	CityFor(ctx context.Context, p geo.Point) (string, error)
}

// US-style locality in a formatted address, e.g. "Brooklyn, NY" out of
// "370 Jay St, Brooklyn, NY 11201, USA".
var cityStatePattern = regexp.MustCompile(`([A-Za-z][A-Za-z .'-]*), ([A-Z]{2})(?:[ ,]|$)`)

// ExtractCityState pulls the "City, ST" portion out of a formatted address.
func ExtractCityState(address string) (string, error) {
	m := cityStatePattern.FindStringSubmatch(address)
	if m == nil {
		return "", apperror.Upstream("geocoder", errors.New("no city/state in address: "+address))
	}
	return m[1] + ", " + m[2], nil
}

// MapsGeocoder implements Geocoder against the Google Maps API.
type MapsGeocoder struct {
	client *maps.Client
}

func NewMapsGeocoder(client *maps.Client) *MapsGeocoder {
	return &MapsGeocoder{client: client}
}

// CityFor reverse-geocodes the point and extracts the locality from the
// first result. The call is synchronous and not retried; any failure is
// surfaced as an upstream error and fails the caller.
func (g *MapsGeocoder) CityFor(ctx context.Context, p geo.Point) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return "", apperror.Upstream("geocoder", err)
	}
	if len(results) == 0 {
		return "", apperror.Upstream("geocoder", errors.New("no results for coordinate"))
	}
	return ExtractCityState(results[0].FormattedAddress)
}
