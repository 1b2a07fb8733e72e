package raster

import (
	"math"
	"strings"

	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.0088

// IsGeographicCRS reports whether a CRS string denotes a lat/lon system.
// EPSG:4326 and CRS:84 cover the common cases; WKT and proj strings are
// matched on their geographic markers.
func IsGeographicCRS(crs string) bool {
	c := strings.ToUpper(strings.TrimSpace(crs))
	if c == "EPSG:4326" || c == "CRS:84" || c == "WGS84" {
		return true
	}
	if strings.HasPrefix(c, "GEOGCS") {
		return true
	}
	return strings.Contains(strings.ToLower(crs), "+proj=longlat")
}

// AreaKm2 computes the real-world area of a bounding box. Geographic
// boxes are measured on the sphere; projected boxes are assumed to be
// in metres and measured planar.
func AreaKm2(bounds [4]float64, crs string) float64 {
	if !IsGeographicCRS(crs) {
		return math.Abs(bounds[2]-bounds[0]) * math.Abs(bounds[3]-bounds[1]) / 1e6
	}

	lo := s2.LatLngFromDegrees(bounds[1], bounds[0])
	hi := s2.LatLngFromDegrees(bounds[3], bounds[2])
	rect := s2.RectFromLatLng(lo).AddPoint(hi)

	return rect.Area() * earthRadiusKm * earthRadiusKm
}
