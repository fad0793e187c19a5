package domain

import (
	"math"
	"strconv"
	"strings"
)

// EarthRadiusMeters is the mean earth radius used for great-circle distance.
const EarthRadiusMeters = 6371008.8

// Point is a geographic position in longitude/latitude order.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// ParsePoint parses query-string coordinates. Unparseable values become
// NaN, which Valid rejects, so a bad request yields no matches instead
// of an error.
func ParsePoint(lng, lat string) Point {
	return Point{Lng: parseCoord(lng), Lat: parseCoord(lat)}
}

func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Valid reports whether both coordinates are finite and in range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lng >= -180 && p.Lng <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// DistanceMeters is the haversine distance between p and q.
func (p Point) DistanceMeters(q Point) float64 {
	const rad = math.Pi / 180
	dLat := (q.Lat - p.Lat) * rad
	dLng := (q.Lng - p.Lng) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(p.Lat*rad)*math.Cos(q.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// GeoJSONPoint is the only location geometry stores carry.
const GeoJSONPoint = "Point"

// Location is a GeoJSON point with a display address. Coordinates are
// [lng, lat].
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
}

// NewLocation builds a point location.
func NewLocation(p Point, address string) *Location {
	return &Location{Type: GeoJSONPoint, Coordinates: []float64{p.Lng, p.Lat}, Address: address}
}

// Point returns the location's coordinates. A location without exactly
// two coordinates yields a NaN point.
func (l *Location) Point() Point {
	if l == nil || len(l.Coordinates) != 2 {
		return Point{Lng: math.NaN(), Lat: math.NaN()}
	}
	return Point{Lng: l.Coordinates[0], Lat: l.Coordinates[1]}
}

// Valid reports whether l is a well-formed point. A nil location is not
// valid.
func (l *Location) Valid() bool {
	return l != nil && l.Type == GeoJSONPoint && l.Point().Valid()
}

// Clone returns a deep copy of l.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	c := *l
	c.Coordinates = append([]float64(nil), l.Coordinates...)
	return &c
}

// Sanitize returns l when valid and nil otherwise, so malformed stored
// locations read as "no location".
func (l *Location) Sanitize() *Location {
	if l.Valid() {
		return l
	}
	return nil
}
