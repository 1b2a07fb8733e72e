package processor

import (
	"fmt"
	"math"
	"sort"

	"github.com/rgdonohue/ghost-forest-watcher/raster"
)

const (
	// MinTileSide keeps tiles large enough that the per-tile overhead
	// of spawning work does not dominate.
	MinTileSide = 64

	// InsideBoundaryPriority ranks tiles touching the area of interest
	// ahead of everything else.
	InsideBoundaryPriority  = 0
	OutsideBoundaryPriority = 1
)

// PlanTiles partitions the raster extent into a grid of tile windows.
// The tile side is derived from the per-tile memory budget, the grid
// covers every pixel exactly once before overlap, and overlap rows and
// columns are added only towards existing neighbour tiles so the
// windows never leave the raster. Tiles intersecting the boundary come
// first in the returned slice; ids follow row-major grid order and are
// stable regardless of the boundary.
func PlanTiles(extent *raster.Extent, memBudgetBytes int64, overlap int, boundary *Boundary) ([]*TileDescriptor, error) {
	if extent == nil || extent.Width <= 0 || extent.Height <= 0 {
		return nil, fmt.Errorf("tile planner: empty raster extent")
	}
	if memBudgetBytes <= 0 {
		return nil, fmt.Errorf("tile planner: memory budget must be positive, got %d", memBudgetBytes)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("tile planner: overlap must be non-negative, got %d", overlap)
	}

	pixelBytes, err := extent.PixelSize()
	if err != nil {
		return nil, err
	}

	side := int(math.Floor(math.Sqrt(float64(memBudgetBytes) / float64(pixelBytes))))
	if side < MinTileSide {
		side = MinTileSide
	}

	tilesX := (extent.Width + side - 1) / side
	tilesY := (extent.Height + side - 1) / side

	// Integer cell edges so the cores partition the raster exactly.
	xs := make([]int, tilesX+1)
	for i := 0; i <= tilesX; i++ {
		xs[i] = i * extent.Width / tilesX
	}
	ys := make([]int, tilesY+1)
	for i := 0; i <= tilesY; i++ {
		ys[i] = i * extent.Height / tilesY
	}

	minCell := extent.Width
	for i := 0; i < tilesX; i++ {
		if w := xs[i+1] - xs[i]; w < minCell {
			minCell = w
		}
	}
	for i := 0; i < tilesY; i++ {
		if h := ys[i+1] - ys[i]; h < minCell {
			minCell = h
		}
	}
	if (tilesX > 1 || tilesY > 1) && overlap >= minCell {
		return nil, fmt.Errorf("tile planner: overlap %d swallows the smallest tile core %d", overlap, minCell)
	}

	tiles := make([]*TileDescriptor, 0, tilesX*tilesY)
	for row := 0; row < tilesY; row++ {
		for col := 0; col < tilesX; col++ {
			x0, x1 := xs[col], xs[col+1]
			y0, y1 := ys[row], ys[row+1]

			if col > 0 {
				x0 -= overlap
			}
			if col < tilesX-1 {
				x1 += overlap
			}
			if row > 0 {
				y0 -= overlap
			}
			if row < tilesY-1 {
				y1 += overlap
			}

			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			if x1 > extent.Width {
				x1 = extent.Width
			}
			if y1 > extent.Height {
				y1 = extent.Height
			}

			win := Window{OffX: x0, OffY: y0, Width: x1 - x0, Height: y1 - y0}
			bounds := extent.Transform.WindowBounds(win.OffX, win.OffY, win.Width, win.Height)

			priority := OutsideBoundaryPriority
			if boundary == nil || boundary.Intersects(bounds) {
				priority = InsideBoundaryPriority
			}

			tiles = append(tiles, &TileDescriptor{
				ID:       row*tilesX + col,
				Window:   win,
				Bounds:   bounds,
				AreaKm2:  raster.AreaKm2(bounds, extent.CRS),
				Priority: priority,
			})
		}
	}

	sort.SliceStable(tiles, func(i, j int) bool {
		if tiles[i].Priority != tiles[j].Priority {
			return tiles[i].Priority < tiles[j].Priority
		}
		return tiles[i].ID < tiles[j].ID
	})

	return tiles, nil
}
