package processor

import (
	"encoding/json"
	"fmt"
	"os"

	geo "github.com/nci/geometry"
)

// Boundary is an area of interest used to prioritise tiles. It keeps
// the outer rings of the boundary polygons in the coordinate space of
// the raster being planned.
type Boundary struct {
	rings [][][2]float64
}

// LoadBoundary parses a GeoJSON file holding either a Feature or a
// FeatureCollection. Only the first feature of a collection is used.
func LoadBoundary(path string) (*Boundary, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boundary: %v", err)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(src, &probe); err != nil {
		return nil, fmt.Errorf("boundary %s: %v", path, err)
	}

	var feat geo.Feature
	switch probe.Type {
	case "FeatureCollection":
		var featCol geo.FeatureCollection
		if err := json.Unmarshal(src, &featCol); err != nil {
			return nil, fmt.Errorf("boundary %s: %v", path, err)
		}
		if len(featCol.Features) == 0 {
			return nil, fmt.Errorf("boundary %s: empty feature collection", path)
		}
		feat = featCol.Features[0]
	case "Feature":
		if err := json.Unmarshal(src, &feat); err != nil {
			return nil, fmt.Errorf("boundary %s: %v", path, err)
		}
	default:
		return nil, fmt.Errorf("boundary %s: unexpected GeoJSON type %s", path, probe.Type)
	}

	return NewBoundary(&feat)
}

// NewBoundary extracts the outer polygon rings of a GeoJSON feature.
func NewBoundary(feat *geo.Feature) (*Boundary, error) {
	geomJSON, err := json.Marshal(feat.Geometry)
	if err != nil {
		return nil, fmt.Errorf("boundary geometry: %v", err)
	}

	var geom struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(geomJSON, &geom); err != nil {
		return nil, fmt.Errorf("boundary geometry: %v", err)
	}

	var rings [][][2]float64
	switch geom.Type {
	case "Polygon":
		var coords [][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("boundary polygon: %v", err)
		}
		if len(coords) > 0 {
			rings = append(rings, coords[0])
		}
	case "MultiPolygon":
		var coords [][][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("boundary multipolygon: %v", err)
		}
		for _, poly := range coords {
			if len(poly) > 0 {
				rings = append(rings, poly[0])
			}
		}
	default:
		return nil, fmt.Errorf("boundary geometry type %s not supported", geom.Type)
	}

	if len(rings) == 0 {
		return nil, fmt.Errorf("boundary has no rings")
	}
	return &Boundary{rings: rings}, nil
}

// Intersects reports whether any boundary ring touches the bounding box
// [minX, minY, maxX, maxY].
func (b *Boundary) Intersects(bounds [4]float64) bool {
	for _, ring := range b.rings {
		if ringIntersectsRect(ring, bounds) {
			return true
		}
	}
	return false
}

func ringIntersectsRect(ring [][2]float64, r [4]float64) bool {
	if len(ring) < 3 {
		return false
	}

	for _, pt := range ring {
		if pt[0] >= r[0] && pt[0] <= r[2] && pt[1] >= r[1] && pt[1] <= r[3] {
			return true
		}
	}

	corners := [4][2]float64{{r[0], r[1]}, {r[2], r[1]}, {r[2], r[3]}, {r[0], r[3]}}
	for _, c := range corners {
		if pointInRing(c, ring) {
			return true
		}
	}

	for i := 0; i < len(ring); i++ {
		p0 := ring[i]
		p1 := ring[(i+1)%len(ring)]
		if segmentCrossesRect(p0, p1, r) {
			return true
		}
	}
	return false
}

// pointInRing is a standard even-odd ray cast.
func pointInRing(pt [2]float64, ring [][2]float64) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		pi, pj := ring[i], ring[j]
		if (pi[1] > pt[1]) != (pj[1] > pt[1]) &&
			pt[0] < (pj[0]-pi[0])*(pt[1]-pi[1])/(pj[1]-pi[1])+pi[0] {
			inside = !inside
		}
		j = i
	}
	return inside
}

func segmentCrossesRect(p0, p1 [2]float64, r [4]float64) bool {
	edges := [4][2][2]float64{
		{{r[0], r[1]}, {r[2], r[1]}},
		{{r[2], r[1]}, {r[2], r[3]}},
		{{r[2], r[3]}, {r[0], r[3]}},
		{{r[0], r[3]}, {r[0], r[1]}},
	}
	for _, e := range edges {
		if segmentsIntersect(p0, p1, e[0], e[1]) {
			return true
		}
	}
	return false
}

func segmentsIntersect(a0, a1, b0, b1 [2]float64) bool {
	d0 := cross(b0, b1, a0)
	d1 := cross(b0, b1, a1)
	d2 := cross(a0, a1, b0)
	d3 := cross(a0, a1, b1)
	return ((d0 > 0 && d1 < 0) || (d0 < 0 && d1 > 0)) &&
		((d2 > 0 && d3 < 0) || (d2 < 0 && d3 > 0))
}

func cross(o, a, b [2]float64) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
