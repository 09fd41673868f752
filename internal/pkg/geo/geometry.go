package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/greengate/greengate/internal/domain/dto"
	"github.com/greengate/greengate/internal/pkg/constants"
)

const (
	// CRS of the working projection. Inputs are accepted untagged or
	// tagged with WGS84; anything else is rejected, no reprojection here.
	WorkingCRS = "EPSG:4326"

	minRingVertices = 4

	// Areas below this are degenerate slivers, rejected as zero-area.
	minAreaHa = 1e-6
)

// Limits bound what the validator accepts. Values come from configuration.
type Limits struct {
	MaxVertices int
	MaxAreaHa   float64
	Bound       orb.Bound
}

func NewLimits(maxVertices int, maxAreaHa, minLon, minLat, maxLon, maxLat float64) Limits {
	return Limits{
		MaxVertices: maxVertices,
		MaxAreaHa:   maxAreaHa,
		Bound: orb.Bound{
			Min: orb.Point{minLon, minLat},
			Max: orb.Point{maxLon, maxLat},
		},
	}
}

// Geometry is a validated, normalized parcel polygon. Immutable once
// returned by ValidateAndNormalize.
type Geometry struct {
	Polygon  orb.Polygon
	CRS      string
	AreaHa   float64
	Vertices int
}

// GeoJSON renders the normalized polygon for persistence and store queries.
func (g *Geometry) GeoJSON() ([]byte, error) {
	return geojson.NewGeometry(g.Polygon).MarshalJSON()
}

// ValidateAndNormalize checks a raw polygon payload against topology,
// size and bounds constraints and returns the normalized geometry. It is
// a pure function: no spatial query is issued here, and every rejection
// happens before the store is ever touched.
//
// Normalization makes results invariant to ring start vertex and winding
// direction: the exterior ring is rewound counter-clockwise (holes
// clockwise) and every ring is rotated to start at its smallest vertex.
func ValidateAndNormalize(payload *dto.GeometryPayload, limits Limits) (*Geometry, error) {
	if payload.Type != "Polygon" {
		return nil, fmt.Errorf("%w: type must be Polygon, got %q", constants.ErrInvalidGeometry, payload.Type)
	}
	if payload.CRS != "" && payload.CRS != WorkingCRS && payload.CRS != "urn:ogc:def:crs:OGC:1.3:CRS84" {
		return nil, fmt.Errorf("%w: unsupported CRS %q", constants.ErrInvalidGeometry, payload.CRS)
	}
	if len(payload.Coordinates) == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", constants.ErrInvalidGeometry)
	}

	total := 0
	for _, ring := range payload.Coordinates {
		total += len(ring)
	}
	if total > limits.MaxVertices {
		return nil, fmt.Errorf("%w: %d vertices exceed limit of %d", constants.ErrGeometryTooLarge, total, limits.MaxVertices)
	}

	polygon := make(orb.Polygon, 0, len(payload.Coordinates))
	for i, rawRing := range payload.Coordinates {
		ring, err := buildRing(i, rawRing, limits.Bound)
		if err != nil {
			return nil, err
		}
		polygon = append(polygon, ring)
	}

	for i, ring := range polygon {
		if selfIntersects(ring) {
			return nil, fmt.Errorf("%w: ring %d is self-intersecting", constants.ErrInvalidGeometry, i)
		}
	}

	areaHa := polygonAreaHa(polygon)
	if areaHa < minAreaHa {
		return nil, fmt.Errorf("%w: polygon has zero area", constants.ErrInvalidGeometry)
	}
	if areaHa > limits.MaxAreaHa {
		return nil, fmt.Errorf("%w: area %.2f ha exceeds limit of %.0f ha", constants.ErrGeometryTooLarge, areaHa, limits.MaxAreaHa)
	}

	normalize(polygon)

	return &Geometry{
		Polygon:  polygon,
		CRS:      WorkingCRS,
		AreaHa:   areaHa,
		Vertices: total,
	}, nil
}

func buildRing(idx int, raw [][]float64, bound orb.Bound) (orb.Ring, error) {
	if len(raw) < minRingVertices {
		return nil, fmt.Errorf("%w: ring %d has %d points, need at least %d", constants.ErrInvalidGeometry, idx, len(raw), minRingVertices)
	}

	ring := make(orb.Ring, 0, len(raw))
	for i, coord := range raw {
		if len(coord) < 2 {
			return nil, fmt.Errorf("%w: ring %d coordinate %d must be [lon, lat]", constants.ErrInvalidGeometry, idx, i)
		}
		lon, lat := coord[0], coord[1]
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("%w: ring %d coordinate %d out of lon/lat range", constants.ErrInvalidGeometry, idx, i)
		}
		ring = append(ring, orb.Point{lon, lat})
	}

	if ring[0] != ring[len(ring)-1] {
		return nil, fmt.Errorf("%w: ring %d is not closed", constants.ErrInvalidGeometry, idx)
	}

	for _, pt := range ring {
		if !bound.Contains(pt) {
			return nil, fmt.Errorf("%w: ring %d leaves the coverage area", constants.ErrOutOfBounds, idx)
		}
	}

	return ring, nil
}

// polygonAreaHa computes the geodesic area in hectares: exterior minus
// holes, on the WGS84 sphere rather than in planar degrees.
func polygonAreaHa(polygon orb.Polygon) float64 {
	if len(polygon) == 0 {
		return 0
	}
	area := math.Abs(geo.Area(polygon[0]))
	for _, hole := range polygon[1:] {
		area -= math.Abs(geo.Area(hole))
	}
	if area < 0 {
		return 0
	}
	return area / 10_000
}

// normalize rewinds and rotates rings in place so that semantically equal
// polygons produce byte-equal GeoJSON.
func normalize(polygon orb.Polygon) {
	for i, ring := range polygon {
		want := orb.CCW
		if i > 0 {
			want = orb.CW
		}
		if ring.Orientation() != want {
			ring.Reverse()
		}
		polygon[i] = rotateToMinStart(ring)
	}
}

// rotateToMinStart rotates a closed ring so that its lexicographically
// smallest vertex comes first, keeping the ring closed.
func rotateToMinStart(ring orb.Ring) orb.Ring {
	open := ring[:len(ring)-1]
	min := 0
	for i, pt := range open {
		if pt[0] < open[min][0] || (pt[0] == open[min][0] && pt[1] < open[min][1]) {
			min = i
		}
	}
	if min == 0 {
		return ring
	}

	rotated := make(orb.Ring, 0, len(ring))
	rotated = append(rotated, open[min:]...)
	rotated = append(rotated, open[:min]...)
	rotated = append(rotated, open[min])
	return rotated
}

// selfIntersects reports whether any two non-adjacent edges of the ring
// cross. Adjacent edges share an endpoint and are skipped.
func selfIntersects(ring orb.Ring) bool {
	n := len(ring) - 1 // edges of a closed ring
	if n < 3 {
		return true
	}

	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // first and last edge are adjacent
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(p1, p2, q1, q2 orb.Point) bool {
	// Cheap envelope reject before orientation tests.
	if math.Max(p1[0], p2[0]) < math.Min(q1[0], q2[0]) ||
		math.Max(q1[0], q2[0]) < math.Min(p1[0], p2[0]) ||
		math.Max(p1[1], p2[1]) < math.Min(q1[1], q2[1]) ||
		math.Max(q1[1], q2[1]) < math.Min(p1[1], p2[1]) {
		return false
	}

	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear overlap counts as an intersection as well.
	if d1 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if d2 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, q2) {
		return true
	}
	return false
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
