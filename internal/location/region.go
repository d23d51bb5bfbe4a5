package location

import "github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"

// ServiceRegion approximates India.
var ServiceRegion = geo.BoundingBox{MinLat: 6, MaxLat: 37, MinLon: 68, MaxLon: 97}

// IsWithinServiceRegion reports whether c lies inside ServiceRegion, edges included.
func IsWithinServiceRegion(c geo.Coordinate) bool {
	return ServiceRegion.Contains(c)
}

// InRegionOrDefault returns c if it is inside the service region and
// DefaultCoordinate otherwise. The boolean reports whether c was kept.
func InRegionOrDefault(c geo.Coordinate) (geo.Coordinate, bool) {
	if IsWithinServiceRegion(c) {
		return c, true
	}
	return DefaultCoordinate, false
}
