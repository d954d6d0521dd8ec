package ctdf

import "math"

// EarthRadiusMeters is the sphere radius used by all distance calculations.
// Confidence thresholds downstream are calibrated against this value.
const EarthRadiusMeters = 6371000.0

type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// LatLng is a single point in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func NewPointLocation(lat float64, lng float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

// IsPoint reports whether the location holds a usable [lng, lat] pair
func (l *Location) IsPoint() bool {
	if l == nil || len(l.Coordinates) < 2 {
		return false
	}

	return !math.IsNaN(l.Coordinates[0]) && !math.IsNaN(l.Coordinates[1])
}

func (l *Location) LatLng() LatLng {
	return LatLng{
		Lat: l.Coordinates[1],
		Lng: l.Coordinates[0],
	}
}

func (l *Location) Distance(l2 *Location) float64 {
	return Distance(l.LatLng(), l2.LatLng())
}

// Distance returns the great-circle distance in meters between two points using the haversine formula
func Distance(a LatLng, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// DistanceToGeometry returns the distance to the closest vertex of the geometry.
// This is a point to vertex-set approximation, not point to segment.
func DistanceToGeometry(point LatLng, geometry []LatLng) (float64, bool) {
	if len(geometry) == 0 {
		return 0, false
	}

	closest := math.Inf(1)
	for _, vertex := range geometry {
		distance := Distance(point, vertex)
		if distance < closest {
			closest = distance
		}
	}

	return closest, true
}

// BoundingBox is the min/max extent of a set of points
type BoundingBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

func NewBoundingBox(points []LatLng) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}

	box := BoundingBox{
		MinLat: points[0].Lat,
		MaxLat: points[0].Lat,
		MinLng: points[0].Lng,
		MaxLng: points[0].Lng,
	}

	for _, point := range points[1:] {
		box.MinLat = math.Min(box.MinLat, point.Lat)
		box.MaxLat = math.Max(box.MaxLat, point.Lat)
		box.MinLng = math.Min(box.MinLng, point.Lng)
		box.MaxLng = math.Max(box.MaxLng, point.Lng)
	}

	return box, true
}

// Pad grows the box by the given number of meters in every direction
func (b BoundingBox) Pad(meters float64) BoundingBox {
	latDelta := (meters / EarthRadiusMeters) * 180 / math.Pi

	// Use the widest latitude of the box so the longitude padding is never too small
	widestLat := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))
	cosLat := math.Cos(widestLat * math.Pi / 180)
	lngDelta := 180.0
	if cosLat > 1e-9 {
		lngDelta = math.Min(180, latDelta/cosLat)
	}

	return BoundingBox{
		MinLat: math.Max(-90, b.MinLat-latDelta),
		MaxLat: math.Min(90, b.MaxLat+latDelta),
		MinLng: math.Max(-180, b.MinLng-lngDelta),
		MaxLng: math.Min(180, b.MaxLng+lngDelta),
	}
}
